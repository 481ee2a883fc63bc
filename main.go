package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/seatbook/seatbook/config"
	"github.com/seatbook/seatbook/database"
	"github.com/seatbook/seatbook/database/model"
	"github.com/seatbook/seatbook/logger"
	"github.com/seatbook/seatbook/util/random"
	"github.com/seatbook/seatbook/web"
	"github.com/seatbook/seatbook/web/form"
	"github.com/seatbook/seatbook/web/service"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func initLogger() {
	level, err := logger.ParseLevel(config.GetLogLevel())
	if err != nil {
		log.Fatal(err)
	}
	logger.InitLogger(level)
}

func openDB() *gorm.DB {
	db, err := database.InitDB(config.GetDatabaseConfig())
	if err != nil {
		log.Fatal(err)
	}
	return db
}

func closeDB(db *gorm.DB) {
	if err := database.CloseDB(db); err != nil {
		logger.Warning("close database:", err)
	}
}

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())
	initLogger()
	defer logger.CloseLogger()

	db := openDB()
	defer closeDB(db)

	server := web.NewServer(db)
	if err := server.Start(); err != nil {
		log.Println(err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	// Trap shutdown signals
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			server = web.NewServer(db)
			if err := server.Start(); err != nil {
				log.Println(err)
				return
			}
		default:
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			return
		}
	}
}

func migrateDb() {
	fmt.Println("Start migrating database...")
	db := openDB()
	closeDB(db)
	fmt.Println("Migration done!")
}

func addUser(login, name, password string, admin bool) error {
	db := openDB()
	defer closeDB(db)

	validator, err := form.NewValidator(config.GetNameScripts()...)
	if err != nil {
		return err
	}
	users := service.NewUserService(db)
	violations, err := validator.Register(&form.RegisterForm{Login: login, Name: name, Password: password}, users.IsLoginTaken)
	if err != nil {
		return err
	}
	if err := violations.Err(); err != nil {
		return err
	}

	role := model.RoleUser
	if admin {
		role = model.RoleAdmin
	}
	user, err := users.CreateUser(login, name, password, role)
	if err != nil {
		return err
	}
	fmt.Printf("user %s created with id %d\n", user.Login, user.Id)
	return nil
}

func listUsers() error {
	db := openDB()
	defer closeDB(db)

	users, err := service.NewUserService(db).GetUsers()
	if err != nil {
		return err
	}
	for _, u := range users {
		fmt.Printf("%d\t%s\t%s\t%s\t%d\n", u.Id, u.Login, u.Name, u.Role, u.Score)
	}
	return nil
}

func updatePassword(login, password string) error {
	validator, err := form.NewValidator(config.GetNameScripts()...)
	if err != nil {
		return err
	}
	if err := validator.Password(password).Err(); err != nil {
		return err
	}

	db := openDB()
	defer closeDB(db)

	users := service.NewUserService(db)
	user, err := users.GetUserByLogin(login)
	if err != nil {
		return err
	}
	if err := users.UpdatePassword(user.Id, password); err != nil {
		return err
	}
	fmt.Println("password updated, all sessions revoked")
	return nil
}

func deleteUser(login string) error {
	db := openDB()
	defer closeDB(db)

	users := service.NewUserService(db)
	user, err := users.GetUserByLogin(login)
	if err != nil {
		return err
	}
	if err := users.DeleteUser(user.Id); err != nil {
		return err
	}
	fmt.Printf("user %s deleted\n", login)
	return nil
}

func purgeSessions() error {
	db := openDB()
	defer closeDB(db)

	n, err := service.NewSessionService(db).Purge()
	if err != nil {
		return err
	}
	fmt.Printf("%d expired sessions removed\n", n)
	return nil
}

func listSessions(login string) error {
	db := openDB()
	defer closeDB(db)

	user, err := service.NewUserService(db).GetUserByLogin(login)
	if err != nil {
		return err
	}
	sessions, err := service.NewSessionService(db).GetUserSessions(user.Id)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, s := range sessions {
		expires := "never"
		if t, ok := s.Expires(); ok {
			expires = t.Format(time.RFC3339)
		}
		state := "active"
		if s.IsExpired(now) {
			state = "expired"
		}
		fmt.Printf("%s...\t%s\texpires %s\n", s.Token[:12], state, expires)
	}
	return nil
}

func revokeSessions(login string) error {
	db := openDB()
	defer closeDB(db)

	user, err := service.NewUserService(db).GetUserByLogin(login)
	if err != nil {
		return err
	}
	if err := service.NewSessionService(db).RevokeAll(user.Id); err != nil {
		return err
	}
	fmt.Printf("all sessions of %s revoked\n", login)
	return nil
}

func addSeat(seat *model.Seat) error {
	db := openDB()
	defer closeDB(db)

	if err := service.NewSeatService(db).AddSeat(seat); err != nil {
		return err
	}
	fmt.Printf("seat %s added with id %d\n", seat.Name, seat.Id)
	return nil
}

func main() {
	if err := config.LoadEnv(".env"); err != nil {
		log.Fatal(err)
	}

	var rootCmd = &cobra.Command{
		Use:           config.GetName(),
		Version:       config.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Run: func(cmd *cobra.Command, args []string) {
			migrateDb()
		},
	}

	var secretCmd = &cobra.Command{
		Use:   "secret",
		Short: "Print a random value for SEATBOOK_SESSION_SECRET",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(random.Seq(64))
		},
	}

	var userCmd = &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var userAddCmd = &cobra.Command{
		Use:   "add",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			login, _ := cmd.Flags().GetString("login")
			name, _ := cmd.Flags().GetString("name")
			password, _ := cmd.Flags().GetString("password")
			admin, _ := cmd.Flags().GetBool("admin")
			return addUser(login, name, password, admin)
		},
	}
	userAddCmd.Flags().String("login", "", "login of the new user")
	userAddCmd.Flags().String("name", "", "display name")
	userAddCmd.Flags().String("password", "", "password")
	userAddCmd.Flags().Bool("admin", false, "grant the admin role")
	_ = userAddCmd.MarkFlagRequired("login")
	_ = userAddCmd.MarkFlagRequired("password")

	var userListCmd = &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listUsers()
		},
	}

	var userPasswdCmd = &cobra.Command{
		Use:   "passwd",
		Short: "Change a password and revoke the user's sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			login, _ := cmd.Flags().GetString("login")
			password, _ := cmd.Flags().GetString("password")
			return updatePassword(login, password)
		},
	}
	userPasswdCmd.Flags().String("login", "", "login of the user")
	userPasswdCmd.Flags().String("password", "", "new password")
	_ = userPasswdCmd.MarkFlagRequired("login")
	_ = userPasswdCmd.MarkFlagRequired("password")

	var userDeleteCmd = &cobra.Command{
		Use:   "delete",
		Short: "Delete a user together with their sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			login, _ := cmd.Flags().GetString("login")
			return deleteUser(login)
		},
	}
	userDeleteCmd.Flags().String("login", "", "login of the user")
	_ = userDeleteCmd.MarkFlagRequired("login")

	userCmd.AddCommand(userAddCmd, userListCmd, userPasswdCmd, userDeleteCmd)

	var sessionCmd = &cobra.Command{
		Use:   "session",
		Short: "Manage sessions",
	}

	var sessionPurgeCmd = &cobra.Command{
		Use:   "purge",
		Short: "Remove expired sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return purgeSessions()
		},
	}

	var sessionListCmd = &cobra.Command{
		Use:   "list",
		Short: "List the sessions of a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			login, _ := cmd.Flags().GetString("login")
			return listSessions(login)
		},
	}
	sessionListCmd.Flags().String("login", "", "login of the user")
	_ = sessionListCmd.MarkFlagRequired("login")

	var sessionRevokeCmd = &cobra.Command{
		Use:   "revoke",
		Short: "Revoke every session of a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			login, _ := cmd.Flags().GetString("login")
			return revokeSessions(login)
		},
	}
	sessionRevokeCmd.Flags().String("login", "", "login of the user")
	_ = sessionRevokeCmd.MarkFlagRequired("login")

	sessionCmd.AddCommand(sessionPurgeCmd, sessionListCmd, sessionRevokeCmd)

	var seatCmd = &cobra.Command{
		Use:   "seat",
		Short: "Manage seats",
	}

	var seatAddCmd = &cobra.Command{
		Use:   "add",
		Short: "Add a seat to the floor plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			seatType, _ := cmd.Flags().GetString("type")
			availability, _ := cmd.Flags().GetString("availability")
			x, _ := cmd.Flags().GetFloat64("x")
			y, _ := cmd.Flags().GetFloat64("y")
			rot, _ := cmd.Flags().GetFloat64("rot")
			return addSeat(&model.Seat{
				Name:         name,
				Type:         model.SeatType(seatType),
				Availability: model.AvailabilityStatus(availability),
				DefaultX:     x,
				DefaultY:     y,
				DefaultRot:   rot,
			})
		},
	}
	seatAddCmd.Flags().String("name", "", "seat name")
	seatAddCmd.Flags().String("type", string(model.SeatChair), "desk, chair, computer_chair or pouf")
	seatAddCmd.Flags().String("availability", string(model.Free), "free, taken or unavailable")
	seatAddCmd.Flags().Float64("x", 0, "x position on the floor plan")
	seatAddCmd.Flags().Float64("y", 0, "y position on the floor plan")
	seatAddCmd.Flags().Float64("rot", 0, "rotation in degrees")
	_ = seatAddCmd.MarkFlagRequired("name")

	seatCmd.AddCommand(seatAddCmd)

	rootCmd.AddCommand(runCmd, migrateCmd, secretCmd, userCmd, sessionCmd, seatCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
