package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/storeops/backoffice/internal/cmdutils"
	"github.com/storeops/backoffice/internal/config"
	"github.com/storeops/backoffice/pkg/api"
)

// resourceOps binds a resource name to the client calls behind it.
// Operations a resource does not support stay nil and report a usage
// error.
type resourceOps struct {
	list   func(ctx context.Context, a *app) (any, error)
	get    func(ctx context.Context, a *app, id string) (any, error)
	create func(ctx context.Context, a *app, raw []byte) (any, error)
	update func(ctx context.Context, a *app, id string, raw []byte) (any, error)
	del    func(ctx context.Context, a *app, id string) error
}

func typedCreate[T any](call func(context.Context, T) (T, error)) func(context.Context, *app, []byte) (any, error) {
	return func(ctx context.Context, _ *app, raw []byte) (any, error) {
		var payload T
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("decoding payload: %w", err)
		}

		return call(ctx, payload)
	}
}

func typedUpdate[T any](call func(context.Context, string, T) (T, error)) func(context.Context, *app, string, []byte) (any, error) {
	return func(ctx context.Context, _ *app, id string, raw []byte) (any, error) {
		var payload T
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("decoding payload: %w", err)
		}

		return call(ctx, id, payload)
	}
}

func resources(a *app) map[string]resourceOps {
	c := a.client

	return map[string]resourceOps{
		"clients": {
			list:   func(ctx context.Context, a *app) (any, error) { return c.ListClients(ctx) },
			get:    func(ctx context.Context, a *app, id string) (any, error) { return c.GetClient(ctx, id) },
			create: typedCreate(c.CreateClient),
			update: typedUpdate(c.UpdateClient),
			del:    func(ctx context.Context, a *app, id string) error { return c.DeleteClient(ctx, id) },
		},
		"products": {
			list:   func(ctx context.Context, a *app) (any, error) { return c.ListProducts(ctx) },
			get:    func(ctx context.Context, a *app, id string) (any, error) { return c.GetProduct(ctx, id) },
			create: typedCreate(c.CreateProduct),
			update: typedUpdate(c.UpdateProduct),
			del:    func(ctx context.Context, a *app, id string) error { return c.DeleteProduct(ctx, id) },
		},
		"categories": {
			list:   func(ctx context.Context, a *app) (any, error) { return c.ListCategories(ctx) },
			create: typedCreate(c.CreateCategory),
			update: typedUpdate(c.UpdateCategory),
			del:    func(ctx context.Context, a *app, id string) error { return c.DeleteCategory(ctx, id) },
		},
		"providers": {
			list:   func(ctx context.Context, a *app) (any, error) { return c.ListProviders(ctx) },
			get:    func(ctx context.Context, a *app, id string) (any, error) { return c.GetProvider(ctx, id) },
			create: typedCreate(c.CreateProvider),
			update: typedUpdate(c.UpdateProvider),
			del:    func(ctx context.Context, a *app, id string) error { return c.DeleteProvider(ctx, id) },
		},
		"sales": {
			list:   func(ctx context.Context, a *app) (any, error) { return c.ListSales(ctx) },
			get:    func(ctx context.Context, a *app, id string) (any, error) { return c.GetSale(ctx, id) },
			create: typedCreate(c.CreateSale),
			del:    func(ctx context.Context, a *app, id string) error { return c.DeleteSale(ctx, id) },
		},
		"invoices": {
			list:   func(ctx context.Context, a *app) (any, error) { return c.ListInvoices(ctx) },
			get:    func(ctx context.Context, a *app, id string) (any, error) { return c.GetInvoice(ctx, id) },
			create: typedCreate(c.CreateInvoice),
			del:    func(ctx context.Context, a *app, id string) error { return c.DeleteInvoice(ctx, id) },
		},
		"stock-movements": {
			list:   func(ctx context.Context, a *app) (any, error) { return c.ListStockMovements(ctx) },
			create: typedCreate(c.CreateStockMovement),
		},
		"invitations": {
			list:   func(ctx context.Context, a *app) (any, error) { return c.ListInvitations(ctx) },
			create: typedCreate(c.CreateInvitation),
			del:    func(ctx context.Context, a *app, id string) error { return c.DeleteInvitation(ctx, id) },
		},
	}
}

func resourceNames(a *app) string {
	names := make([]string, 0)
	for name := range resources(a) {
		names = append(names, name)
	}

	sort.Strings(names)

	return strings.Join(names, ", ")
}

func lookupResource(a *app, name string) (resourceOps, error) {
	ops, ok := resources(a)[name]
	if !ok {
		return resourceOps{}, fmt.Errorf("unknown resource %q, expected one of: %s", name, resourceNames(a))
	}

	return ops, nil
}

func readPayload(file string) ([]byte, error) {
	if file == "" || file == "-" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading payload from stdin: %w", err)
		}

		return raw, nil
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}

	return raw, nil
}

func listCmd() *cobra.Command {
	return cmdutils.CobraCommand("list <resource>", "List a resource",
		"Lists a resource, serving the last cached copy when the backend is unreachable.",
		func(ctx context.Context, cfg *config.Config, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one resource argument")
			}

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}

			ops, err := lookupResource(a, args[0])
			if err != nil {
				return err
			}

			if ops.list == nil {
				return fmt.Errorf("resource %q cannot be listed", args[0])
			}

			a.refreshIfStale(ctx)

			items, err := ops.list(ctx, a)
			if err != nil {
				return err
			}

			return printJSON(items)
		})
}

func getCmd() *cobra.Command {
	return cmdutils.CobraCommand("get <resource> <id>", "Fetch a single record",
		"Fetches one record of a resource by id.",
		func(ctx context.Context, cfg *config.Config, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected resource and id arguments")
			}

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}

			ops, err := lookupResource(a, args[0])
			if err != nil {
				return err
			}

			if ops.get == nil {
				return fmt.Errorf("resource %q has no get operation", args[0])
			}

			a.refreshIfStale(ctx)

			record, err := ops.get(ctx, a, args[1])
			if err != nil {
				return err
			}

			return printJSON(record)
		})
}

func createCmd() *cobra.Command {
	var file string

	cmd := cmdutils.CobraCommand("create <resource>", "Create a record",
		"Creates a record from a JSON payload read from --file or stdin.",
		func(ctx context.Context, cfg *config.Config, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one resource argument")
			}

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}

			ops, err := lookupResource(a, args[0])
			if err != nil {
				return err
			}

			if ops.create == nil {
				return fmt.Errorf("resource %q cannot be created", args[0])
			}

			raw, err := readPayload(file)
			if err != nil {
				return err
			}

			a.refreshIfStale(ctx)

			record, err := ops.create(ctx, a, raw)
			if err != nil {
				return err
			}

			return printJSON(record)
		})

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON payload file, - for stdin")

	return cmd
}

func updateCmd() *cobra.Command {
	var file string

	cmd := cmdutils.CobraCommand("update <resource> <id>", "Update a record",
		"Replaces a record with a JSON payload read from --file or stdin.",
		func(ctx context.Context, cfg *config.Config, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected resource and id arguments")
			}

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}

			ops, err := lookupResource(a, args[0])
			if err != nil {
				return err
			}

			if ops.update == nil {
				return fmt.Errorf("resource %q cannot be updated", args[0])
			}

			raw, err := readPayload(file)
			if err != nil {
				return err
			}

			a.refreshIfStale(ctx)

			record, err := ops.update(ctx, a, args[1], raw)
			if err != nil {
				return err
			}

			return printJSON(record)
		})

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON payload file, - for stdin")

	return cmd
}

func deleteCmd() *cobra.Command {
	return cmdutils.CobraCommand("delete <resource> <id>", "Delete a record",
		"Deletes one record of a resource by id.",
		func(ctx context.Context, cfg *config.Config, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected resource and id arguments")
			}

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}

			ops, err := lookupResource(a, args[0])
			if err != nil {
				return err
			}

			if ops.del == nil {
				return fmt.Errorf("resource %q cannot be deleted", args[0])
			}

			a.refreshIfStale(ctx)

			return ops.del(ctx, a, args[1])
		})
}

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage the commerce settings",
	}

	var file string

	show := cmdutils.CobraCommand("show", "Show the commerce settings", "",
		func(ctx context.Context, cfg *config.Config, _ []string) error {
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}

			a.refreshIfStale(ctx)

			settings, err := a.client.GetCommerceSettings(ctx)
			if err != nil {
				return err
			}

			return printJSON(settings)
		})

	update := cmdutils.CobraCommand("update", "Update the commerce settings", "",
		func(ctx context.Context, cfg *config.Config, _ []string) error {
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}

			raw, err := readPayload(file)
			if err != nil {
				return err
			}

			var settings api.CommerceSettings
			if err := json.Unmarshal(raw, &settings); err != nil {
				return fmt.Errorf("decoding payload: %w", err)
			}

			a.refreshIfStale(ctx)

			updated, err := a.client.UpdateCommerceSettings(ctx, settings)
			if err != nil {
				return err
			}

			return printJSON(updated)
		})
	update.Flags().StringVarP(&file, "file", "f", "", "JSON payload file, - for stdin")

	cmd.AddCommand(show, update)

	return cmd
}
