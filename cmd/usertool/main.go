package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/crime-analysis/backend/internal/auth"
	"github.com/crime-analysis/backend/internal/config"
	"github.com/crime-analysis/backend/internal/database"
	"github.com/crime-analysis/backend/internal/logger"
	"github.com/crime-analysis/backend/internal/models"
	"github.com/crime-analysis/backend/internal/services"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "usertool",
		Usage: "manage password-login users",
		Commands: []*cli.Command{
			createCommand(),
			setPasswordCommand(),
			setRoleCommand(),
			listCommand(),
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		log.Fatal(err)
	}
}

func createCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "create a user with a password",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true},
			&cli.StringFlag{Name: "role", Value: string(models.RoleUnknown), Usage: "one of the application roles"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			role, err := parseRole(c.String("role"))
			if err != nil {
				return err
			}
			hash, err := auth.HashPassword(c.String("password"))
			if err != nil {
				return err
			}
			return withUsers(ctx, func(users services.UserService) error {
				u, err := users.CreateLocalUser(ctx, c.String("email"), hash, role)
				if err != nil {
					return err
				}
				fmt.Printf("created user %d (%s, %s)\n", u.ID, u.Email, u.Role)
				return nil
			})
		},
	}
}

func setPasswordCommand() *cli.Command {
	return &cli.Command{
		Name:  "set-password",
		Usage: "replace a user's password",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			hash, err := auth.HashPassword(c.String("password"))
			if err != nil {
				return err
			}
			return withUsers(ctx, func(users services.UserService) error {
				return users.SetPassword(ctx, c.String("email"), hash)
			})
		},
	}
}

func setRoleCommand() *cli.Command {
	return &cli.Command{
		Name:  "set-role",
		Usage: "change a user's role",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "role", Required: true},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			role, err := parseRole(c.String("role"))
			if err != nil {
				return err
			}
			return withUsers(ctx, func(users services.UserService) error {
				return users.SetRole(ctx, c.String("email"), role)
			})
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "print every user",
		Action: func(ctx context.Context, _ *cli.Command) error {
			return withUsers(ctx, func(users services.UserService) error {
				list, err := users.ListUsers(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tEMAIL\tROLE\tLOGIN")
				for _, u := range list {
					login := "external"
					if u.PasswordHash != nil {
						login = "password"
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Email, u.Role, login)
				}
				return w.Flush()
			})
		},
	}
}

// parseRole is stricter than models.ParseRole: a typo should fail here
// rather than silently create an unknown-role user.
func parseRole(s string) (models.Role, error) {
	role := models.ParseRole(s)
	if role == models.RoleUnknown && s != string(models.RoleUnknown) {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return role, nil
}

func withUsers(ctx context.Context, fn func(services.UserService) error) error {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}
	zl, err := logger.New(cfg.LogLevel, "console", "usertool")
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	store, err := database.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(services.NewUserService(store.DB, zl))
}
