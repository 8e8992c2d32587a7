package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime/debug"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/parishhub/parish-client/credentials/filestore"
	"github.com/parishhub/parish-client/gateway"
	"github.com/parishhub/parish-client/identity"
	"github.com/parishhub/parish-client/internal/config"
	"github.com/parishhub/parish-client/session"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %s\n", err)
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load()
	zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	c := config.New()
	displayAppname(c.GetAppName())

	manager, err := newManager(c)
	if err != nil {
		return err
	}

	if len(os.Args) < 2 {
		usage()
		return nil
	}

	ctx := context.Background()
	switch os.Args[1] {
	case "login":
		return login(ctx, manager)
	case "logout":
		manager.Logout()
		fmt.Println("Signed out.")
		return nil
	case "whoami":
		return whoami(manager)
	case "update":
		return update(ctx, manager)
	default:
		usage()
		return fmt.Errorf("unknown command %q", os.Args[1])
	}
}

func newManager(c config.Config) (*session.Manager, error) {
	gw, err := gateway.NewClient(c.GetAPIBaseURL(), gateway.WithTimeout(c.GetHTTPTimeout()))
	if err != nil {
		return nil, err
	}
	store, err := filestore.New(c.GetCredentialsPath())
	if err != nil {
		return nil, err
	}
	manager, err := session.NewManager(gw, store)
	if err != nil {
		return nil, err
	}
	if _, err := manager.Restore(); err != nil {
		return nil, err
	}
	return manager, nil
}

func login(ctx context.Context, manager *session.Manager) error {
	username := config.GetEnv("PARISH_USERNAME", "")
	password := config.GetEnv("PARISH_PASSWORD", "")
	if len(os.Args) > 2 {
		username = os.Args[2]
	}
	if username == "" || password == "" {
		return errors.New("set PARISH_USERNAME and PARISH_PASSWORD (or pass the username as an argument)")
	}
	sess, err := manager.Login(ctx, username, password)
	if err != nil {
		return err
	}
	if sess.ProfileKnown() {
		fmt.Printf("Signed in as %s (%s)\n", sess.Identity.Username, sess.Identity.FullName())
	} else {
		fmt.Println("Signed in. Profile could not be loaded; some screens may show placeholders.")
	}
	return nil
}

func whoami(manager *session.Manager) error {
	sess := manager.Current()
	if !sess.Authenticated() {
		fmt.Println("Not signed in.")
		return nil
	}
	if sess.Identity == nil {
		fmt.Println("Signed in (profile unknown).")
		return nil
	}
	fmt.Printf("%s <%s>\n", sess.Identity.FullName(), sess.Identity.Email)
	if expiry, err := identity.TokenExpiry(sess.AccessToken); err == nil {
		fmt.Printf("Access token expires %s\n", expiry.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func update(ctx context.Context, manager *session.Manager) error {
	patch := identity.Patch{}
	args := os.Args[2:]
	for i := 0; i+1 < len(args); i += 2 {
		value := args[i+1]
		switch args[i] {
		case "-first":
			patch.FirstName = &value
		case "-last":
			patch.LastName = &value
		case "-phone":
			patch.Phone = &value
		case "-location":
			patch.Location = &value
		default:
			return fmt.Errorf("unknown flag %q", args[i])
		}
	}
	if patch.IsZero() {
		return errors.New("nothing to update: pass -first, -last, -phone or -location")
	}
	sess, err := manager.UpdateProfile(ctx, patch)
	if err != nil {
		return err
	}
	fmt.Printf("Profile updated: %s\n", sess.Identity.FullName())
	return nil
}

func usage() {
	fmt.Println("Usage: parishctl <login [username] | logout | whoami | update [-first F] [-last L] [-phone P] [-location L]>")
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
