package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"go-tenant-catalog/internal/repository"
	"go-tenant-catalog/internal/service"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// opener returns the database the commands operate on.
type opener func() (*gorm.DB, error)

type services struct {
	tenants service.TenantService
	users   service.UserService
	tenantR repository.TenantRepository
}

func newRootCommand(open opener, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Administer tenants and users of the product catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	withServices := func(run func(ctx context.Context, s *services, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			db, err := open()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			tenantRepo := repository.NewTenantRepo(db)
			userRepo := repository.NewUserRepo(db)
			return run(ctx, &services{
				tenants: service.NewTenantService(tenantRepo),
				users:   service.NewUserService(userRepo, tenantRepo),
				tenantR: tenantRepo,
			}, args)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := open()
				if err != nil {
					return err
				}
				if err := repository.AutoMigrate(db); err != nil {
					return fmt.Errorf("migrating database: %w", err)
				}
				fmt.Fprintln(out, "schema up to date")
				return nil
			},
		},
		newTenantCommand(out, withServices),
		newUserCommand(out, withServices),
	)
	return root
}

type runWith func(run func(ctx context.Context, s *services, args []string) error) func(*cobra.Command, []string) error

func newTenantCommand(out io.Writer, withServices runWith) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenants",
	}

	var req service.TenantRequest
	var address, contact, location string
	create := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a tenant",
		Args:  cobra.ExactArgs(1),
		RunE: withServices(func(ctx context.Context, s *services, args []string) error {
			req.Name = args[0]
			req.Address = optional(address)
			req.Contact = optional(contact)
			req.Location = optional(location)
			tenant, err := s.tenants.CreateTenant(ctx, &req, "catalogctl")
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "created tenant %s (%s)\n", tenant.Name, tenant.ID)
			return nil
		}),
	}
	create.Flags().StringVar(&address, "address", "", "postal address")
	create.Flags().StringVar(&contact, "contact", "", "contact person or phone")
	create.Flags().StringVar(&location, "location", "", "location")

	var search string
	list := &cobra.Command{
		Use:   "list",
		Short: "List tenants",
		Args:  cobra.NoArgs,
		RunE: withServices(func(ctx context.Context, s *services, args []string) error {
			tenants, err := s.tenants.ListTenants(ctx, search)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tLOCATION")
			for _, t := range tenants {
				fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, t.Name, deref(t.Location))
			}
			return w.Flush()
		}),
	}
	list.Flags().StringVar(&search, "search", "", "filter by name, contact or location")

	del := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a tenant with all of its users and products",
		Args:  cobra.ExactArgs(1),
		RunE: withServices(func(ctx context.Context, s *services, args []string) error {
			tenant, err := s.tenantR.FindByName(ctx, args[0])
			if err != nil {
				return fmt.Errorf("tenant %q: %w", args[0], err)
			}
			if err := s.tenants.DeleteTenant(ctx, tenant.ID); err != nil {
				return err
			}
			fmt.Fprintf(out, "deleted tenant %s\n", tenant.Name)
			return nil
		}),
	}

	cmd.AddCommand(create, list, del)
	return cmd
}

func newUserCommand(out io.Writer, withServices runWith) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var password, email, tenantName string
	var superuser, staff bool
	create := &cobra.Command{
		Use:   "create USERNAME",
		Short: "Create a tenant user, or a superuser with --superuser",
		Args:  cobra.ExactArgs(1),
		RunE: withServices(func(ctx context.Context, s *services, args []string) error {
			req := &service.CreateUserRequest{
				Username:    args[0],
				Password:    password,
				Email:       email,
				IsSuperuser: superuser,
				IsStaff:     staff || superuser,
			}
			if tenantName != "" {
				tenant, err := s.tenantR.FindByName(ctx, tenantName)
				if err != nil {
					return fmt.Errorf("tenant %q: %w", tenantName, err)
				}
				req.TenantID = &tenant.ID
			}
			user, err := s.users.CreateUser(ctx, req, "catalogctl")
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "created user %s\n", user)
			return nil
		}),
	}
	create.Flags().StringVar(&password, "password", "", "initial password (required)")
	create.Flags().StringVar(&email, "email", "", "email address")
	create.Flags().StringVar(&tenantName, "tenant", "", "name of the tenant the user belongs to")
	create.Flags().BoolVar(&superuser, "superuser", false, "create a superuser without a tenant")
	create.Flags().BoolVar(&staff, "staff", false, "mark the user as staff")
	_ = create.MarkFlagRequired("password")

	var newPassword string
	reset := &cobra.Command{
		Use:   "reset-password USERNAME",
		Short: "Set a new password and revoke the user's tokens",
		Args:  cobra.ExactArgs(1),
		RunE: withServices(func(ctx context.Context, s *services, args []string) error {
			if err := s.users.ResetPassword(ctx, args[0], newPassword); err != nil {
				return err
			}
			fmt.Fprintf(out, "password reset for %s\n", args[0])
			return nil
		}),
	}
	reset.Flags().StringVar(&newPassword, "password", "", "new password (required)")
	_ = reset.MarkFlagRequired("password")

	var search string
	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: withServices(func(ctx context.Context, s *services, args []string) error {
			users, err := s.users.GetAllUsers(ctx, search)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tTENANT\tSUPERUSER\tACTIVE")
			for _, u := range users {
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%t\n", u.ID, u.Username, deref(u.Tenant), u.IsSuperuser, u.IsActive)
			}
			return w.Flush()
		}),
	}
	list.Flags().StringVar(&search, "search", "", "filter by username, email or tenant name")

	cmd.AddCommand(create, reset, list)
	return cmd
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
