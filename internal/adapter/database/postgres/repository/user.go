package repository

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"timely/internal/adapter/database/postgres"
	"timely/internal/core/domain"
	"timely/internal/core/port"
)

const userColumns = "id, uuid, first_name, last_name, age, email, encrypted_password, reset_token, created_at, updated_at"

type UserRepository struct {
	db *postgres.DB
}

func NewUserRepository(db *postgres.DB) port.UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (domain.User, error) {
	var user domain.User

	err := row.Scan(
		&user.ID,
		&user.UUID,
		&user.FirstName,
		&user.LastName,
		&user.Age,
		&user.Email,
		&user.EncryptedPassword,
		&user.ResetToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	return user, err
}

func (ur *UserRepository) getOne(ctx context.Context, query sq.SelectBuilder) (domain.User, error) {
	stmt, args, err := query.ToSql()

	if err != nil {
		return domain.User{}, err
	}

	user, err := scanUser(ur.db.QueryRow(ctx, stmt, args...))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}

		return domain.User{}, err
	}

	return user, nil
}

func (ur *UserRepository) GetByID(ctx context.Context, id int) (domain.User, error) {
	return ur.getOne(ctx, ur.db.QueryBuilder.Select(userColumns).
		From("users").
		Where(sq.Eq{"id": id}).
		Limit(1))
}

func (ur *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return ur.getOne(ctx, ur.db.QueryBuilder.Select(userColumns).
		From("users").
		Where(sq.Eq{"email": domain.NormalizeEmail(email)}).
		Limit(1))
}

func (ur *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	stmt, args, err := ur.db.QueryBuilder.Insert("users").
		Columns("uuid", "first_name", "last_name", "age", "email", "encrypted_password", "created_at", "updated_at").
		Values(user.UUID, user.FirstName, user.LastName, user.Age, domain.NormalizeEmail(user.Email), user.EncryptedPassword, user.CreatedAt, user.UpdatedAt).
		Suffix("RETURNING " + userColumns).
		ToSql()

	if err != nil {
		return domain.User{}, err
	}

	saved, err := scanUser(ur.db.QueryRow(ctx, stmt, args...))

	if err != nil {
		// 23505 is unique_violation, raised by the email index.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.User{}, domain.ErrDuplicateEmail
		}

		return domain.User{}, err
	}

	return saved, nil
}

func (ur *UserRepository) SetResetToken(ctx context.Context, userID int, resetID *string) error {
	stmt, args, err := ur.db.QueryBuilder.Update("users").
		Set("reset_token", resetID).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": userID}).
		ToSql()

	if err != nil {
		return err
	}

	tag, err := ur.db.Exec(ctx, stmt, args...)

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// UpdatePassword clears the reset token in the same statement, which is
// what makes a reset link single use.
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

	tag, err := ur.db.Exec(ctx, stmt, args...)

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}
