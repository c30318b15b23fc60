package main

import (
	"context"
	"duochat/backend/internal/auth"
	"duochat/backend/internal/config"
	"duochat/backend/internal/logger"
	"duochat/backend/internal/models"
	"duochat/backend/internal/storage"
	"errors"
	"fmt"
	"log"
	"os"
	"time"
)

const usage = `Usage: admin <command> [args]

Commands:
  create-user <email> <full_name> <password>
  list-users [exclude_user_id]
  history <user_a> <user_b>`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, _ := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := storage.Open(ctx, cfg, logger.New("warn", true))
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close(context.Background())

	command := os.Args[1]

	switch command {
	case "create-user":
		if len(os.Args) != 5 {
			fmt.Println("Usage: admin create-user <email> <full_name> <password>")
			os.Exit(1)
		}
		user, err := createUser(ctx, store, os.Args[2], os.Args[3], os.Args[4])
		if err != nil {
			log.Fatalf("Error creating user: %v", err)
		}
		fmt.Printf("User %s created with id %s.\n", user.Email, user.ID)
	case "list-users":
		exclude := ""
		if len(os.Args) > 2 {
			exclude = os.Args[2]
		}
		users, err := store.ListUsersExcept(ctx, exclude)
		if err != nil {
			log.Fatalf("Error listing users: %v", err)
		}
		for _, u := range users {
			fmt.Printf("%s\t%s\t%s\n", u.ID, u.Email, u.FullName)
		}
	case "history":
		if len(os.Args) != 4 {
			fmt.Println("Usage: admin history <user_a> <user_b>")
			os.Exit(1)
		}
		history, err := store.GetConversation(ctx, os.Args[2], os.Args[3])
		if err != nil {
			log.Fatalf("Error loading history: %v", err)
		}
		for _, m := range history {
			fmt.Printf("%s\t%s -> %s\t%s\n", m.CreatedAt.Format(time.RFC3339), m.SenderID, m.ReceiverID, m.Text)
		}
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
}

func createUser(ctx context.Context, store storage.Storage, email, fullName, password string) (*models.User, error) {
	if len(password) < auth.MinPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters", auth.MinPasswordLength)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{Email: email, FullName: fullName, Password: hash}
	if err := store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return nil, fmt.Errorf("%s is already registered", email)
		}
		return nil, err
	}
	return user, nil
}
