package Services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"TaskLedger/Models"
	"TaskLedger/Policy"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	passwordLength   = 5
)

var ErrInvalidCredentials = fmt.Errorf("invalid username or password: %w", Policy.ErrUnauthenticated)

type UserService struct {
	DB *gorm.DB
}

type NewEmployeeInput struct {
	Username string `json:"username" validate:"required,max=150"`
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func generatePassword() (string, error) {
	out := make([]byte, passwordLength)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		out[i] = passwordAlphabet[n.Int64()]
	}
	return string(out), nil
}

func (s *UserService) Authenticate(ctx context.Context, username, password string) (*Models.User, error) {
	var user Models.User
	if err := s.DB.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user %q: %w", username, err)
	}
	if !CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Get loads a user by id, used to resolve session tokens.
func (s *UserService) Get(ctx context.Context, id uint) (*Models.User, error) {
	var user Models.User
	if err := s.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, "user", id)
	}
	return &user, nil
}

// CreateEmployee adds an employee with a generated password, returned once in plaintext.
func (s *UserService) CreateEmployee(ctx context.Context, actor *Policy.Actor, in NewEmployeeInput) (*Models.User, string, error) {
	if err := Policy.RequireManager(actor); err != nil {
		return nil, "", err
	}
	in.Username = strings.TrimSpace(in.Username)
	if err := validateInput(in); err != nil {
		return nil, "", err
	}

	password, err := generatePassword()
	if err != nil {
		return nil, "", err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := Models.User{Username: in.Username, PasswordHash: hash}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			if Models.IsDuplicateKey(err) {
				return &ValidationError{Field: "username", Message: "username is already taken"}
			}
			return fmt.Errorf("create employee: %w", err)
		}
		return recordActivity(tx, actor, Models.EntityUser, user.ID, "created", map[string]any{"username": user.Username})
	})
	if err != nil {
		return nil, "", err
	}
	return &user, password, nil
}

func (s *UserService) ListEmployees(ctx context.Context, actor *Policy.Actor) ([]Models.User, error) {
	if err := Policy.RequireManager(actor); err != nil {
		return nil, err
	}
	var users []Models.User
	if err := s.DB.WithContext(ctx).
		Where("is_manager = ?", false).
		Order("username ASC").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return users, nil
}

// DeleteEmployee removes the employee and their claims, and releases their accounts.
func (s *UserService) DeleteEmployee(ctx context.Context, actor *Policy.Actor, id uint) error {
	if err := Policy.RequireManager(actor); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user Models.User
		if err := tx.First(&user, id).Error; err != nil {
			return notFoundOr(err, "employee", id)
		}
		if user.IsManager {
			return &ValidationError{Field: "id", Message: "managers cannot be deleted"}
		}

		claims := tx.Where("employee_id = ?", id).Delete(&Models.TaskClaim{})
		if claims.Error != nil {
			return fmt.Errorf("delete claims of %d: %w", id, claims.Error)
		}
		accounts := tx.Model(&Models.WorkAccount{}).
			Where("employee_id = ?", id).
			Updates(map[string]any{"employee_id": nil, "status": Models.AccountAssigned})
		if accounts.Error != nil {
			return fmt.Errorf("release accounts of %d: %w", id, accounts.Error)
		}
		if err := tx.Delete(&user).Error; err != nil {
			return fmt.Errorf("delete employee %d: %w", id, err)
		}
		return recordActivity(tx, actor, Models.EntityUser, id, "deleted", map[string]any{
			"username":          user.Username,
			"claims_deleted":    claims.RowsAffected,
			"accounts_released": accounts.RowsAffected,
		})
	})
}

// UpdateCredentials changes the actor's own username and/or password.
func (s *UserService) UpdateCredentials(ctx context.Context, actor *Policy.Actor, current, newUsername, newPassword string) (*Models.User, error) {
	if err := Policy.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	var user Models.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, actor.UserID).Error; err != nil {
			return notFoundOr(err, "user", actor.UserID)
		}
		if !CheckPassword(current, user.PasswordHash) {
			return &ValidationError{Field: "current_password", Message: "current password is incorrect"}
		}

		updates := map[string]any{}
		if name := strings.TrimSpace(newUsername); name != "" && name != user.Username {
			updates["username"] = name
		}
		if newPassword != "" {
			hash, err := HashPassword(newPassword)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			updates["password_hash"] = hash
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			if Models.IsDuplicateKey(err) {
				return &ValidationError{Field: "new_username", Message: "username is already taken"}
			}
			return fmt.Errorf("update credentials of %d: %w", user.ID, err)
		}
		if name, ok := updates["username"].(string); ok {
			user.Username = name
		}
		if hash, ok := updates["password_hash"].(string); ok {
			user.PasswordHash = hash
		}
		return recordActivity(tx, actor, Models.EntityUser, user.ID, "credentials_updated", map[string]any{
			"username_changed": updates["username"] != nil,
			"password_changed": updates["password_hash"] != nil,
		})
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// EnsureManager creates the manager login if it does not exist yet.
func (s *UserService) EnsureManager(ctx context.Context, username, password string) (*Models.User, error) {
	db := s.DB.WithContext(ctx)
	var user Models.User
	err := db.Where("username = ?", username).First(&user).Error
	if err == nil {
		if !user.IsManager {
			return nil, fmt.Errorf("user %q exists but is not a manager", username)
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("look up manager %q: %w", username, err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user = Models.User{Username: username, PasswordHash: hash, IsManager: true}
	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create manager %q: %w", username, err)
	}
	return &user, nil
}
