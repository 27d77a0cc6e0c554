package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/db"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/store"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new database with an admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			adminUser, _ := cmd.Flags().GetString("user")

			if _, err := os.Stat(dbPath); err == nil {
				return fmt.Errorf("database file %s already exists", dbPath)
			}

			database, password, err := initDatabase(dbPath, adminUser)
			if err != nil {
				return err
			}
			database.Close()

			printInitResult(cmd, dbPath, adminUser, password)
			return nil
		},
	}
	cmd.Flags().StringP("user", "u", "admin", "admin username")
	return cmd
}

// initDatabase creates a new database, migrates it, and creates the admin
// user. On failure the file is removed.
func initDatabase(path, adminUsername string) (*sql.DB, string, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	fail := func(format string, err error) (*sql.DB, string, error) {
		database.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf(format, err)
	}

	if err := db.Migrate(database); err != nil {
		return fail("running migrations: %w", err)
	}

	password, err := generatePassword(16)
	if err != nil {
		return fail("generating password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fail("hashing password: %w", err)
	}

	if _, err := store.CreateUser(context.Background(), database, adminUsername, string(hash), model.RoleAdmin); err != nil {
		return fail("creating admin user: %w", err)
	}

	return database, password, nil
}

func printInitResult(cmd *cobra.Command, dbPath, username, password string) {
	cmd.Printf("Database created: %s\n", dbPath)
	cmd.Println("Schema migrated.")
	cmd.Println()
	cmd.Println("Admin account created:")
	cmd.Printf("  Username: %s\n", username)
	cmd.Printf("  Password: %s\n", password)
	cmd.Println()
	cmd.Println("Save this password. It cannot be recovered.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
