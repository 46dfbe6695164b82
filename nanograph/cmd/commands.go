package main

import (
	"github.com/spf13/cobra"

	"github.com/arthur-debert/nanograph/nanograph"
	"github.com/arthur-debert/nanograph/nanograph/schema"
	"github.com/arthur-debert/nanograph/types"
)

// modelInfo is the printed description of one model
type modelInfo struct {
	Entity     string      `json:"entity" yaml:"entity"`
	PrimaryKey string      `json:"primary_key" yaml:"primary_key"`
	Fields     []fieldInfo `json:"fields" yaml:"fields"`
}

type fieldInfo struct {
	Name    string `json:"name" yaml:"name"`
	Type    string `json:"type" yaml:"type"`
	Related string `json:"related,omitempty" yaml:"related,omitempty"`
	Pivot   string `json:"pivot,omitempty" yaml:"pivot,omitempty"`
}

// addModelsCommand adds the models command for schema introspection
func (cli *ViperCLI) addModelsCommand() {
	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "List configured models with their fields and relations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := cli.loadSchema("list models")
			if err != nil {
				return err
			}
			return cli.outputResult(cmd.OutOrStdout(), describeModels(registry))
		},
	}

	cli.rootCmd.AddCommand(modelsCmd)
}

func describeModels(registry *schema.Registry) []modelInfo {
	var out []modelInfo
	for _, m := range registry.Models() {
		info := modelInfo{Entity: m.Entity(), PrimaryKey: m.PrimaryKey()}
		for _, name := range m.FieldNames() {
			field, _ := m.Field(name)
			fi := fieldInfo{Name: name, Type: schema.KindAttr}
			if rel, ok := field.(*schema.BelongsToMany); ok {
				fi.Type = schema.KindBelongsToMany
				fi.Related = rel.Related().Entity()
				fi.Pivot = rel.Pivot().Entity()
			}
			info.Fields = append(info.Fields, fi)
		}
		out = append(out, info)
	}
	return out
}

// addNormalizeCommand adds the normalize command
func (cli *ViperCLI) addNormalizeCommand() {
	normalizeCmd := &cobra.Command{
		Use:   "normalize [seed-file...]",
		Short: "Insert seed files and print the resulting partitions",
		Long: `Insert every seed file, the --seed files first, and print the flat store:
one partition per entity, keyed by identity, including synthesized pivot
records.

Examples:
  nanograph --schema schema.yaml normalize seed.yaml
  nanograph --schema schema.yaml normalize seed.yaml --entity role_user`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cli.openStore("normalize", args...)
			if err != nil {
				return err
			}

			snapshot := s.State().Snapshot()
			if entity := cli.viperInst.GetString("entity"); entity != "" {
				records, ok := snapshot[entity]
				if !ok {
					return NewNotFoundError("normalize", "partition", entity, CommonSuggestions.RunModels)
				}
				snapshot = types.NormalizedData{entity: records}
			}
			return cli.outputResult(cmd.OutOrStdout(), snapshot.Native())
		},
	}

	normalizeCmd.Flags().String("entity", "", "Only print this partition")
	cli.rootCmd.AddCommand(normalizeCmd)
}

// addLoadCommand adds the load command
func (cli *ViperCLI) addLoadCommand() {
	loadCmd := &cobra.Command{
		Use:   "load <entity>",
		Short: "Hydrate stored records with eager-loaded relations",
		Long: `Query one partition and print the matching records as connected objects.

Examples:
  nanograph --schema schema.yaml --seed seed.yaml load users --id 1 --with roles
  nanograph --schema schema.yaml --seed seed.yaml load users --with roles.permissions --where "name LIKE 'A%'"
  nanograph --schema schema.yaml --seed seed.yaml load roles --order name --desc --limit 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity := args[0]
			s, err := cli.openStore("load")
			if err != nil {
				return err
			}

			loads := nanograph.ParseWith(cli.viperInst.GetStringSlice("with")...)

			if id := cli.viperInst.GetString("id"); id != "" {
				inst, found, err := s.Find(entity, types.String(id), loads...)
				if err != nil {
					return WrapError("load", err)
				}
				if !found {
					return NewNotFoundError("load", entity, id, "Run 'nanograph normalize' to see stored keys")
				}
				return cli.outputResult(cmd.OutOrStdout(), inst.Native())
			}

			q := s.Query(entity)
			if where := cli.viperInst.GetString("where"); where != "" {
				q.WhereClause(where)
			}
			if order := cli.viperInst.GetString("order"); order != "" {
				q.OrderBy(order, cli.viperInst.GetBool("desc"))
			}
			q.Limit(cli.viperInst.GetInt("limit")).Offset(cli.viperInst.GetInt("offset"))

			instances, err := s.Get(q, loads...)
			if err != nil {
				return WrapError("load", err)
			}

			out := make([]map[string]any, 0, len(instances))
			for _, inst := range instances {
				out = append(out, inst.Native())
			}
			return cli.outputResult(cmd.OutOrStdout(), out)
		},
	}

	flags := loadCmd.Flags()
	flags.String("id", "", "Load the single record with this identity")
	flags.StringSlice("with", nil, "Relations to eager-load, dotted for nesting (e.g. roles.permissions)")
	flags.String("where", "", "Filter condition (e.g. \"name = 'admin'\")")
	flags.String("order", "", "Field to order by")
	flags.Bool("desc", false, "Order descending")
	flags.Int("limit", -1, "Maximum number of records")
	flags.Int("offset", 0, "Number of records to skip")

	cli.rootCmd.AddCommand(loadCmd)
}
