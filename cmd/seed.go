package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/facegate/facegate/internal/authz"
	"github.com/facegate/facegate/internal/config"
	"github.com/facegate/facegate/internal/database"
)

var seedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Load rooms, identities and access policies from a YAML file",
	Long: `Seed upserts rooms, identities and per-room access policies from a
YAML file. Identities seeded this way have no face vector until they are
enrolled; existing vectors are preserved.

Example file:

  rooms:
    - code: R1
      name: Main Lab
  identities:
    - id: S100
      name: Jiří Novák
  policies:
    - identity: S100
      room: R1
      allowed: true
      from: "09:00"
      to: "17:00"`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

type seedFile struct {
	Rooms []struct {
		Code string `yaml:"code"`
		Name string `yaml:"name"`
	} `yaml:"rooms"`
	Identities []struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"identities"`
	Policies []struct {
		Identity string `yaml:"identity"`
		Room     string `yaml:"room"`
		Allowed  bool   `yaml:"allowed"`
		From     string `yaml:"from"`
		To       string `yaml:"to"`
	} `yaml:"policies"`
}

// parseTimeOfDay parses an optional "HH:MM" string. Empty means unbounded.
func parseTimeOfDay(s string) (*authz.TimeOfDay, error) {
	if s == "" {
		return nil, nil
	}
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return nil, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return &authz.TimeOfDay{Hour: hour, Minute: minute}, nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	for _, room := range seed.Rooms {
		if err := store.UpsertRoom(ctx, database.Room{Code: room.Code, Name: room.Name}); err != nil {
			return fmt.Errorf("failed to upsert room %s: %w", room.Code, err)
		}
	}
	for _, identity := range seed.Identities {
		if err := store.UpsertIdentity(ctx, database.Identity{ID: identity.ID, Name: identity.Name}); err != nil {
			return fmt.Errorf("failed to upsert identity %s: %w", identity.ID, err)
		}
	}
	for _, policy := range seed.Policies {
		from, err := parseTimeOfDay(policy.From)
		if err != nil {
			return fmt.Errorf("policy (%s, %s): %w", policy.Identity, policy.Room, err)
		}
		to, err := parseTimeOfDay(policy.To)
		if err != nil {
			return fmt.Errorf("policy (%s, %s): %w", policy.Identity, policy.Room, err)
		}
		if err := store.UpsertPolicy(ctx, database.AccessPolicy{
			IdentityID:  policy.Identity,
			RoomCode:    policy.Room,
			Allowed:     policy.Allowed,
			AllowedFrom: from,
			AllowedTo:   to,
		}); err != nil {
			return fmt.Errorf("failed to upsert policy (%s, %s): %w", policy.Identity, policy.Room, err)
		}
	}

	fmt.Printf("Seeded %d rooms, %d identities, %d policies\n",
		len(seed.Rooms), len(seed.Identities), len(seed.Policies))
	return nil
}
