package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"kitchensync/internal/database"
	"kitchensync/internal/session"
	"kitchensync/internal/storage"
)

// UserExport is everything persisted for one user.
type UserExport struct {
	Username string         `yaml:"username"`
	UserID   string         `yaml:"userId"`
	Records  []RecordExport `yaml:"records"`
}

type RecordExport struct {
	Kind      string    `yaml:"kind"`
	UpdatedAt time.Time `yaml:"updatedAt,omitempty"`
	Data      any       `yaml:"data"`
}

func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump a user's persisted records as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return errors.New("--user is required")
			}

			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}

			db, err := database.Initialize(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			export, err := exportUser(database.NewRecordStore(db), username)
			if err != nil {
				return err
			}
			return writeExport(cmd.OutOrStdout(), export)
		},
	}

	cmd.Flags().StringVarP(&username, "user", "u", "", "username to export")

	return cmd
}

// exportUser collects the user's records. Credentials never leave the
// database, and only kinds a user owns are exported.
func exportUser(store *database.RecordStore, username string) (*UserExport, error) {
	id := session.UserID(username)

	records, err := store.GetRecords(id)
	if err != nil {
		return nil, err
	}

	export := &UserExport{Username: username, UserID: id, Records: []RecordExport{}}
	for _, rec := range records {
		if rec.Kind == storage.KindCredentials || !slices.Contains(storage.UserKinds, rec.Kind) {
			continue
		}

		var data any
		if err := json.Unmarshal(rec.Data, &data); err != nil {
			return nil, fmt.Errorf("record %s is not valid JSON: %w", rec.Kind, err)
		}
		export.Records = append(export.Records, RecordExport{
			Kind:      string(rec.Kind),
			UpdatedAt: rec.UpdatedAt,
			Data:      data,
		})
	}

	return export, nil
}

func writeExport(w io.Writer, export *UserExport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(export); err != nil {
		return err
	}
	return enc.Close()
}
