package main

import (
	"fmt"

	"github.com/nssmahe/portal/business/domain/sitebus"
	"github.com/nssmahe/portal/business/domain/sitebus/stores/sitedb"
	"github.com/nssmahe/portal/business/domain/tenantbus"
	"github.com/nssmahe/portal/business/domain/tenantbus/stores/tenantdb"
	"github.com/nssmahe/portal/business/types/slug"
	"github.com/nssmahe/portal/foundation/logger"
	"github.com/spf13/cobra"
)

func newCreateTenantCommand(log *logger.Logger) *cobra.Command {
	var (
		tenantName string
		tenantSlug string
		domain     string
		public     bool
	)

	cmd := &cobra.Command{
		Use:   "create-tenant",
		Short: "Create a tenant and provision its site",
		RunE: func(cmd *cobra.Command, _ []string) error {
			nt, err := newTenant(tenantName, tenantSlug, domain, public)
			if err != nil {
				return err
			}

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			tenantBus := tenantbus.NewCore(log, tenantdb.NewStore(log, db))
			siteBus := sitebus.NewCore(log, sitedb.NewStore(log, db))

			tnt, err := tenantBus.Create(cmd.Context(), nt)
			if err != nil {
				return fmt.Errorf("create tenant: %w", err)
			}

			if err := siteBus.Provision(cmd.Context(), tnt); err != nil {
				return fmt.Errorf("provision site: tenantID[%s]: %w", tnt.ID, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "tenant created\nID: %s\nSlug: %s\n", tnt.ID, tnt.Slug)
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantName, "name", "", "display name of the tenant")
	cmd.Flags().StringVar(&tenantSlug, "slug", "", "url slug, derived from the name when empty")
	cmd.Flags().StringVar(&domain, "domain", "", "host name that selects the tenant")
	cmd.Flags().BoolVar(&public, "public", false, "allow anonymous reads of the tenant's content")
	cmd.MarkFlagRequired("name")

	return cmd
}

func newTenant(tenantName string, tenantSlug string, domain string, public bool) (tenantbus.NewTenant, error) {
	var (
		s   slug.Slug
		err error
	)

	switch tenantSlug {
	case "":
		s, err = slug.From(tenantName)
	default:
		s, err = slug.Parse(tenantSlug)
	}
	if err != nil {
		return tenantbus.NewTenant{}, fmt.Errorf("invalid slug: %w", err)
	}

	nt := tenantbus.NewTenant{
		Name:            tenantName,
		Slug:            s,
		AllowPublicRead: public,
	}

	if domain != "" {
		nt.Domain = &domain
	}

	return nt, nil
}
