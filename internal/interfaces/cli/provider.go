package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
)

// providerFlags mirrors a ProviderConfig on the command line.
type providerFlags struct {
	Name    string
	Type    string
	Role    string
	Creds   []string
	Zones   []string
	Include []string
	Exclude []string
	Sources []string
}

func (f *providerFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Name, "name", "", "Display name (unique, case-insensitive)")
	cmd.Flags().StringVar(&f.Type, "type", "", "Vendor: cloudflare, aliyun, dnspod, route53")
	cmd.Flags().StringVar(&f.Role, "role", "", "Role: source or target")
	cmd.Flags().StringArrayVar(&f.Creds, "cred", nil, "Credential key=value; value may be secret:NAME or env:VAR")
	cmd.Flags().StringSliceVar(&f.Zones, "zone", nil, "Zones to read (default: all zones the include rules allow)")
	cmd.Flags().StringArrayVar(&f.Include, "include", nil, "Include rule pattern[:TYPE,TYPE]")
	cmd.Flags().StringArrayVar(&f.Exclude, "exclude", nil, "Exclude rule pattern[:TYPE,TYPE]")
	cmd.Flags().StringSliceVar(&f.Sources, "source", nil, "Source provider ids (targets only)")
}

// apply copies the flags the user actually set onto p.
func (f *providerFlags) apply(cmd *cobra.Command, p *entity.ProviderConfig) error {
	changed := cmd.Flags().Changed
	if changed("name") {
		p.Name = f.Name
	}
	if changed("type") {
		p.VendorType = entity.VendorType(strings.ToLower(f.Type))
	}
	if changed("role") {
		p.Role = entity.Role(strings.ToLower(f.Role))
	}
	if changed("cred") {
		creds, err := parseCredentials(f.Creds)
		if err != nil {
			return err
		}
		p.Credentials = creds
	}
	if changed("zone") {
		p.Zones = f.Zones
	}
	if changed("include") {
		rules, err := parseRules(f.Include)
		if err != nil {
			return err
		}
		p.IncludeFilters = rules
	}
	if changed("exclude") {
		rules, err := parseRules(f.Exclude)
		if err != nil {
			return err
		}
		p.ExcludeFilters = rules
	}
	if changed("source") {
		p.SourceProviderIDs = f.Sources
	}
	return nil
}

func parseCredentials(items []string) (map[string]valueobject.SecretRef, error) {
	creds := make(map[string]valueobject.SecretRef, len(items))
	for _, item := range items {
		key, value, ok := strings.Cut(item, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid credential %q, want key=value", item)
		}
		switch {
		case strings.HasPrefix(value, "secret:"):
			creds[key] = *valueobject.NewSecretRefSecret(strings.TrimPrefix(value, "secret:"))
		case strings.HasPrefix(value, "env:"):
			creds[key] = *valueobject.NewSecretRefEnv(strings.TrimPrefix(value, "env:"))
		default:
			creds[key] = *valueobject.NewSecretRefPlain(value)
		}
	}
	return creds, nil
}

func parseRules(items []string) (entity.FilterRules, error) {
	rules := make(entity.FilterRules, 0, len(items))
	for _, item := range items {
		pattern, types, _ := strings.Cut(item, ":")
		rule := entity.FilterRule{DomainPattern: strings.ToLower(strings.TrimSpace(pattern))}
		if types != "" {
			for _, s := range strings.Split(types, ",") {
				t, err := entity.ParseRecordType(s)
				if err != nil {
					return nil, err
				}
				rule.RecordTypes = append(rule.RecordTypes, t)
			}
		}
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func newProviderCommand(ctx *Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "provider",
		Aliases: []string{"providers"},
		Short:   "Manage provider configs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ProviderService(cmd.Context())
			if err != nil {
				return err
			}
			providers, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}
			renderProviders(cmd.OutOrStdout(), providers)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one provider with credentials redacted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ProviderService(cmd.Context())
			if err != nil {
				return err
			}
			p, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n%s", title.String(string(p.Role)), p.Name, data)
			return nil
		},
	})

	var addFlags providerFlags
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ProviderService(cmd.Context())
			if err != nil {
				return err
			}
			var p entity.ProviderConfig
			if err := addFlags.apply(cmd, &p); err != nil {
				return err
			}
			created, err := svc.Add(cmd.Context(), p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s provider %s added with id %s\n", SuccessStyle.Render("✓"), created.Name, created.ID)
			return nil
		},
	}
	addFlags.bind(addCmd)
	_ = addCmd.MarkFlagRequired("name")
	_ = addCmd.MarkFlagRequired("type")
	_ = addCmd.MarkFlagRequired("role")
	cmd.AddCommand(addCmd)

	var updateFlags providerFlags
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a provider; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ProviderService(cmd.Context())
			if err != nil {
				return err
			}
			p, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := updateFlags.apply(cmd, &p); err != nil {
				return err
			}
			updated, err := svc.Update(cmd.Context(), p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s provider %s updated\n", SuccessStyle.Render("✓"), updated.Name)
			return nil
		},
	}
	updateFlags.bind(updateCmd)
	cmd.AddCommand(updateCmd)

	var yes bool
	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a provider and prune it from target source lists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ProviderService(cmd.Context())
			if err != nil {
				return err
			}
			if !yes && !Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete provider %s?", args[0]), false) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			if err := svc.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s provider %s deleted\n", SuccessStyle.Render("✓"), args[0])
			return nil
		},
	}
	deleteCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	cmd.AddCommand(deleteCmd)

	return cmd
}
