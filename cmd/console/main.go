// Command console is an interactive terminal front end for the admin
// users API. It maps line commands onto console events and prints the
// resulting view; all CRUD logic lives in internal/console.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ymiyake/userboard/internal/client"
	"github.com/ymiyake/userboard/internal/console"
)

func main() {
	addr := flag.String("addr", "http://localhost:8080", "server base URL")
	userName := flag.String("user", "", "user name to log in with")
	password := flag.String("password", "", "password to log in with")
	guest := flag.Bool("guest", false, "log in as the shared guest account")
	flag.Parse()

	ctx := context.Background()

	api, err := client.New(*addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	switch {
	case *guest:
		_, err = api.GuestLogin(ctx)
	case *userName != "":
		_, err = api.Login(ctx, *userName, *password)
	default:
		fmt.Fprintln(os.Stderr, "either -user/-password or -guest is required")
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "login failed:", err)
		os.Exit(1)
	}

	c := console.New(api)
	if err := c.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "initial fetch failed:", err)
		os.Exit(1)
	}

	render(c)
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "quit" || line == "exit" {
			break
		}
		if line != "" {
			if err := dispatch(ctx, c, line); err != nil {
				fmt.Println("error:", err)
			}
			render(c)
		}
		fmt.Print("> ")
	}
}

func dispatch(ctx context.Context, c *console.Console, line string) error {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "new":
		return c.OpenCreate()
	case "open":
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return fmt.Errorf("open needs a user id")
		}
		for _, u := range c.Users() {
			if u.ID == id {
				return c.Select(ctx, u)
			}
		}
		return fmt.Errorf("no user with id %d in the list", id)
	case "close":
		return c.Close(ctx)
	case "edit":
		return c.OpenEdit()
	case "delete":
		return c.OpenDelete()
	case "yes":
		return c.ConfirmDelete(ctx)
	case "no":
		return c.CancelDelete()
	case "cancel":
		if c.Mode() == console.ModeEdit {
			return c.CancelEdit()
		}
		return c.CancelCreate()
	case "set":
		return setField(c, rest)
	case "avatar":
		return setAvatar(c, rest)
	case "submit":
		if c.Mode() == console.ModeEdit {
			return c.SubmitUpdate(ctx)
		}
		return c.SubmitCreate(ctx)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func setField(c *console.Console, rest string) error {
	name, value, _ := strings.Cut(rest, " ")
	d := c.Draft()
	switch name {
	case "user_name":
		d.UserName.Set(value)
	case "email":
		d.Email.Set(value)
	case "password":
		d.Password.Set(value)
	case "password_confirmation":
		d.PasswordConfirmation.Set(value)
	case "admin":
		d.Admin.Set(value == "true")
	case "guest":
		d.Guest.Set(value == "true")
	case "user_profile":
		d.Profile.Set(value)
	default:
		return fmt.Errorf("unknown field %q", name)
	}
	return nil
}

func setAvatar(c *console.Console, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	preview, err := c.Draft().SetAvatar(client.Attachment{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		return err
	}
	fmt.Println("preview:", preview.URI)
	return nil
}

func render(c *console.Console) {
	if msg := c.Message(); msg != "" {
		fmt.Println("✔", msg)
	}
	for _, msg := range c.Draft().Errors {
		fmt.Println("✘", msg)
	}

	switch c.Mode() {
	case console.ModeList:
		if c.CollectionStatus() == console.StatusLoading {
			fmt.Println("loading...")
			return
		}
		for _, u := range c.Users() {
			flags := ""
			if u.Admin {
				flags += " [admin]"
			}
			if u.Guest {
				flags += " [guest]"
			}
			fmt.Printf("%4d  %s <%s>%s\n", u.ID, u.UserName, u.Email, flags)
		}
		fmt.Println("(new | open <id> | quit)")
	case console.ModeCreate:
		fmt.Println("-- register account --")
		fmt.Println("(set <field> <value> | avatar <path> | submit | cancel)")
	case console.ModeDetail:
		u := c.Selected()
		fmt.Printf("-- %s <%s> --\n", u.UserName, u.Email)
		if u.Profile != "" {
			fmt.Println(u.Profile)
		}
		fmt.Println("(edit | delete | close)")
	case console.ModeEdit:
		fmt.Printf("-- edit %s --\n", c.Selected().UserName)
		fmt.Println("(set <field> <value> | avatar <path> | submit | cancel)")
	case console.ModeDeleteConfirm:
		fmt.Printf("delete %s? (yes | no)\n", c.Selected().UserName)
	}
}
