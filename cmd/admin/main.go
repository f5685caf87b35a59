package main

import (
	"fmt"
	"os"
	"time"

	"github.com/devstudio/devstudio-server/internal/auth"
	"github.com/devstudio/devstudio-server/internal/config"
	"github.com/devstudio/devstudio-server/internal/db"
	"github.com/devstudio/devstudio-server/internal/db/repository"
	"github.com/devstudio/devstudio-server/internal/models"
	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        *config.Config
	database   *db.DB
)

var rootCmd = &cobra.Command{
	Use:   "admin",
	Short: "DevStudio Server administration tool",
	Long:  "Administrative tool for managing DevStudio administrators, invites, and audit logs",
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage administrators",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new administrator",
	RunE:  createAdmin,
}

var adminListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all administrators",
	RunE:  listAdmins,
}

var inviteCmd = &cobra.Command{
	Use:   "invite",
	Short: "Mint a single-use invite code",
	RunE:  createInvite,
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent audit log entries",
	RunE:  listAudit,
}

var (
	username  string
	password  string
	email     string
	role      string
	createdBy int64
	auditUser string
	auditAct  string
	auditMax  int
)

func init() {
	// Root flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "/etc/devstudio/config.yaml", "Config file path")

	// Admin create flags
	adminCreateCmd.Flags().StringVarP(&username, "username", "u", "", "Username (required)")
	adminCreateCmd.Flags().StringVarP(&password, "password", "p", "", "Password (required)")
	adminCreateCmd.Flags().StringVar(&email, "email", "", "Contact email")
	adminCreateCmd.Flags().StringVar(&role, "role", models.RoleAdmin, "Role (admin or superadmin)")

	adminCreateCmd.MarkFlagRequired("username")
	adminCreateCmd.MarkFlagRequired("password")

	// Invite flags
	inviteCmd.Flags().Int64Var(&createdBy, "created-by", 0, "Administrator ID minting the invite (required)")
	inviteCmd.MarkFlagRequired("created-by")

	// Audit flags
	auditCmd.Flags().StringVar(&auditUser, "username", "", "Filter by username")
	auditCmd.Flags().StringVar(&auditAct, "action", "", "Filter by action")
	auditCmd.Flags().IntVar(&auditMax, "limit", 50, "Maximum entries to show")

	// Add commands
	adminCmd.AddCommand(adminCreateCmd)
	adminCmd.AddCommand(adminListCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(inviteCmd)
	rootCmd.AddCommand(auditCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initDB() error {
	// Load configuration
	var err error
	cfg, err = config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Connect to database
	database, err = db.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	return db.RunMigrations(database)
}

func createAdmin(cmd *cobra.Command, args []string) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	if role != models.RoleAdmin && role != models.RoleSuperadmin {
		return fmt.Errorf("role must be %q or %q", models.RoleAdmin, models.RoleSuperadmin)
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	adminRepo := repository.NewAdminRepository(database.DB)
	admin := &models.Admin{
		Username:     username,
		PasswordHash: passwordHash,
		Email:        email,
		Role:         role,
	}

	if err := adminRepo.Create(admin); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	fmt.Printf("\nAdministrator created successfully!\n")
	fmt.Printf("ID:       %d\n", admin.ID)
	fmt.Printf("Username: %s\n", admin.Username)
	fmt.Printf("Role:     %s\n", admin.Role)

	return nil
}

func listAdmins(cmd *cobra.Command, args []string) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	adminRepo := repository.NewAdminRepository(database.DB)
	admins, err := adminRepo.List()
	if err != nil {
		return fmt.Errorf("failed to list admins: %w", err)
	}

	if len(admins) == 0 {
		fmt.Println("No administrators found")
		return nil
	}

	fmt.Printf("\nTotal administrators: %d\n\n", len(admins))
	fmt.Printf("%-5s %-20s %-12s %-6s %s\n", "ID", "Username", "Role", "2FA", "Created")
	fmt.Println("--------------------------------------------------------------------------------")

	for _, admin := range admins {
		twoFA := "No"
		if admin.TwoFAEnabled {
			twoFA = "Yes"
		}
		fmt.Printf("%-5d %-20s %-12s %-6s %s\n",
			admin.ID,
			admin.Username,
			admin.Role,
			twoFA,
			admin.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}

	return nil
}

func createInvite(cmd *cobra.Command, args []string) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	code, err := auth.GenerateInviteCode()
	if err != nil {
		return err
	}

	inviteRepo := repository.NewInviteRepository(database.DB)
	invite := &models.InviteToken{
		Code:      code,
		CreatedBy: createdBy,
		ExpiresAt: time.Now().Add(cfg.GetInviteValidity()),
	}

	if err := inviteRepo.Create(invite); err != nil {
		return fmt.Errorf("failed to create invite: %w", err)
	}

	fmt.Printf("\nInvite code: %s\n", invite.Code)
	fmt.Printf("Expires at:  %s\n", invite.ExpiresAt.Format("2006-01-02 15:04:05"))

	return nil
}

func listAudit(cmd *cobra.Command, args []string) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	auditRepo := repository.NewAuditRepository(database.DB)
	logs, err := auditRepo.List(auditUser, auditAct, auditMax)
	if err != nil {
		return fmt.Errorf("failed to list audit logs: %w", err)
	}

	if len(logs) == 0 {
		fmt.Println("No audit log entries found")
		return nil
	}

	fmt.Printf("%-20s %-16s %-20s %-8s %s\n", "Timestamp", "Action", "Username", "Success", "Error")
	fmt.Println("--------------------------------------------------------------------------------")

	for _, entry := range logs {
		success := "no"
		if entry.Success {
			success = "yes"
		}
		fmt.Printf("%-20s %-16s %-20s %-8s %s\n",
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.Action,
			entry.Username,
			success,
			entry.ErrorMsg,
		)
	}

	return nil
}
