package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arcede/tickets/internal/domain"
)

// SupportRoleRepository manages the per-guild support role set.
type SupportRoleRepository interface {
	Add(ctx context.Context, role *domain.SupportRole) error
	Remove(ctx context.Context, guildID, roleID string) error
	ListByGuild(ctx context.Context, guildID string) ([]domain.SupportRole, error)
}

type supportRoleRepository struct {
	pool *pgxpool.Pool
}

// NewSupportRoleRepository instantiates the repository.
func NewSupportRoleRepository(pool *pgxpool.Pool) SupportRoleRepository {
	return &supportRoleRepository{pool: pool}
}

func (r *supportRoleRepository) Add(ctx context.Context, role *domain.SupportRole) error {
	const query = `
        INSERT INTO support_roles (guild_id, role_id, role_name) VALUES ($1,$2,$3)
        ON CONFLICT (guild_id, role_id) DO UPDATE SET role_name = EXCLUDED.role_name
        RETURNING added_at`
	return r.pool.QueryRow(ctx, query, role.GuildID, role.RoleID, role.RoleName).Scan(&role.AddedAt)
}

func (r *supportRoleRepository) Remove(ctx context.Context, guildID, roleID string) error {
	const query = `DELETE FROM support_roles WHERE guild_id=$1 AND role_id=$2`
	cmd, err := r.pool.Exec(ctx, query, guildID, roleID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *supportRoleRepository) ListByGuild(ctx context.Context, guildID string) ([]domain.SupportRole, error) {
	const query = `
        SELECT guild_id, role_id, role_name, added_at
        FROM support_roles WHERE guild_id=$1 ORDER BY added_at ASC`
	rows, err := r.pool.Query(ctx, query, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SupportRole
	for rows.Next() {
		var role domain.SupportRole
		if err := rows.Scan(&role.GuildID, &role.RoleID, &role.RoleName, &role.AddedAt); err != nil {
			return nil, err
		}
		result = append(result, role)
	}
	return result, rows.Err()
}
