package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"timely/internal/adapter/database/sqlite"
	"timely/internal/core/domain"
	"timely/internal/core/port"
	tel "timely/internal/core/telemetry"
)

type UserRepository struct {
	db        *sqlite.DB
	scanner   *sqlite.Scanner
	telemetry port.Telemetry
}

func NewUserRepository(db *sqlite.DB, telemetry port.Telemetry) port.UserRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &UserRepository{
		db:        db,
		scanner:   sqlite.NewScanner(),
		telemetry: telemetry,
	}
}

func (ur *UserRepository) GetByID(ctx context.Context, id int) (domain.User, error) {
	query := ur.db.QueryBuilder.Select("*").
		From("users").
		Where(sq.Eq{"id": id}).
		Limit(1)

	return ur.getOne(ctx, query)
}

func (ur *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	query := ur.db.QueryBuilder.Select("*").
		From("users").
		Where(sq.Eq{"email": domain.NormalizeEmail(email)}).
		Limit(1)

	return ur.getOne(ctx, query)
}

func (ur *UserRepository) getOne(ctx context.Context, query sq.SelectBuilder) (domain.User, error) {
	stmt, args, err := query.ToSql()

	if err != nil {
		return domain.User{}, err
	}

	rows, err := ur.db.QueryContext(ctx, stmt, args...)

	if err != nil {
		return domain.User{}, err
	}

	defer rows.Close()

	var user domain.User

	if err := ur.scanner.ScanRowToStruct(rows, &user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}

		return domain.User{}, err
	}

	return user, nil
}

func (ur *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	ctx, span := ur.telemetry.StartRepositorySpan(ctx, "Create", "user", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     "users",
		"db.operation": "INSERT",
	})
	defer span.End()

	startTime := time.Now()

	stmt, args, err := ur.db.QueryBuilder.Insert("users").
		Columns("uuid", "first_name", "last_name", "age", "email", "encrypted_password", "created_at", "updated_at").
		Values(user.UUID.String(), user.FirstName, user.LastName, user.Age, domain.NormalizeEmail(user.Email), user.EncryptedPassword, user.CreatedAt, user.UpdatedAt).
		ToSql()

	if err != nil {
		span.SetStatus("error", err.Error())
		span.RecordError(err)
		return domain.User{}, err
	}

	if _, err := ur.db.ExecContext(ctx, stmt, args...); err != nil {
		span.SetStatus("error", err.Error())
		span.RecordError(err)
		ur.telemetry.RecordRepositoryOperation(ctx, "Create", "user", time.Since(startTime), err)

		// The unique index backs the duplicate check against a racing insert.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.User{}, domain.ErrDuplicateEmail
		}

		slog.Error("Error creating user", "error", err)
		return domain.User{}, err
	}

	saved, err := ur.GetByEmail(ctx, user.Email)

	if err != nil {
		return domain.User{}, err
	}

	span.SetStatus("ok", "")
	ur.telemetry.RecordRepositoryOperation(ctx, "Create", "user", time.Since(startTime), nil)

	return saved, nil
}

func (ur *UserRepository) SetResetToken(ctx context.Context, userID int, resetID *string) error {
	var value interface{}

	if resetID != nil {
		value = *resetID
	}

	stmt, args, err := ur.db.QueryBuilder.Update("users").
		Set("reset_token", value).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": userID}).
		ToSql()

	if err != nil {
		return err
	}

	result, err := ur.db.ExecContext(ctx, stmt, args...)

	if err != nil {
		return err
	}

	rowsAffected, _ := result.RowsAffected()

	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// UpdatePassword clears the reset token in the same statement so the
// matching reset link cannot be replayed.
func (ur *UserRepository) UpdatePassword(ctx context.Context, userID int, encryptedPassword string) error {
	stmt, args, err := ur.db.QueryBuilder.Update("users").
		Set("encrypted_password", encryptedPassword).
		Set("reset_token", nil).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": userID}).
		ToSql()

	if err != nil {
		return err
	}

	result, err := ur.db.ExecContext(ctx, stmt, args...)

	if err != nil {
		return err
	}

	rowsAffected, _ := result.RowsAffected()

	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}
