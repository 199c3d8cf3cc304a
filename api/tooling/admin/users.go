package main

import (
	"errors"
	"fmt"
	"net/mail"

	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/domain/userbus/stores/userdb"
	"github.com/nssmahe/portal/business/types/name"
	"github.com/nssmahe/portal/business/types/password"
	"github.com/nssmahe/portal/business/types/role"
	"github.com/nssmahe/portal/business/types/status"
	"github.com/nssmahe/portal/foundation/logger"
	"github.com/spf13/cobra"
)

func newSeedAdminCommand(log *logger.Logger) *cobra.Command {
	var email, fullName, pass string

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create an active super-admin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			nu, err := newSuperAdmin(email, fullName, pass)
			if err != nil {
				return err
			}

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			userBus := userbus.NewCore(userdb.NewStore(log, db))

			usr, err := userBus.Create(cmd.Context(), nu)
			if err != nil {
				if errors.Is(err, userbus.ErrUniqueEmail) {
					return fmt.Errorf("seed admin: %s already exists", email)
				}
				return fmt.Errorf("seed admin: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "super-admin created\nID: %s\nEmail: %s\n", usr.ID, usr.Email.Address)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "login e-mail of the admin")
	cmd.Flags().StringVar(&fullName, "name", "Portal Admin", "full name of the admin")
	cmd.Flags().StringVar(&pass, "password", "", "initial password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")

	return cmd
}

func newSuperAdmin(email string, fullName string, pass string) (userbus.NewUser, error) {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return userbus.NewUser{}, fmt.Errorf("invalid email: %w", err)
	}

	n, err := name.Parse(fullName)
	if err != nil {
		return userbus.NewUser{}, fmt.Errorf("invalid name: %w", err)
	}

	pw, err := password.Parse(pass)
	if err != nil {
		return userbus.NewUser{}, fmt.Errorf("invalid password: %w", err)
	}

	nu := userbus.NewUser{
		Name:     n,
		Email:    *addr,
		Roles:    []role.Role{role.SuperAdmin},
		Password: &pw,
		Status:   status.Active,
	}

	return nu, nil
}
