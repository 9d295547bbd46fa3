package database

import (
	"context"

	"github.com/rpupo63/consulting-site-backend/accounts"
)

const userSelectSQL = `SELECT id, name, email, role, title, avatar_url, password_hash, created_at, updated_at FROM users`

func userFromRecord(rec record) accounts.UserRecord {
	return accounts.UserRecord{
		User: accounts.User{
			ID:        rec.str("id"),
			Name:      rec.str("name"),
			Email:     rec.str("email"),
			Role:      accounts.Role(rec.str("role")),
			Title:     rec.optStr("title"),
			AvatarURL: rec.optStr("avatar_url"),
			CreatedAt: rec.time("created_at"),
			UpdatedAt: rec.time("updated_at"),
		},
		PasswordHash: rec.str("password_hash"),
	}
}

func (r *Remote) ListUsers(ctx context.Context) ([]accounts.User, error) {
	sets, err := r.client.execute(ctx, stmt(userSelectSQL+" ORDER BY name ASC, id ASC"))
	if err != nil {
		return nil, storeErr("list", entityUser, err)
	}
	users := make([]accounts.User, 0, len(sets[0].rows))
	for _, rec := range sets[0].records() {
		users = append(users, userFromRecord(rec).User)
	}
	return users, nil
}

func (r *Remote) FindUser(ctx context.Context, id string) (*accounts.UserRecord, error) {
	return r.findUser(ctx, userSelectSQL+" WHERE id = ? LIMIT 1", id)
}

func (r *Remote) FindUserByEmail(ctx context.Context, email string) (*accounts.UserRecord, error) {
	return r.findUser(ctx, userSelectSQL+" WHERE email = ? LIMIT 1", email)
}

func (r *Remote) findUser(ctx context.Context, sql, value string) (*accounts.UserRecord, error) {
	sets, err := r.client.execute(ctx, stmt(sql, value))
	if err != nil {
		return nil, storeErr("find", entityUser, err)
	}
	recs := sets[0].records()
	if len(recs) == 0 {
		return nil, storeErr("find", entityUser, errNoRows)
	}
	user := userFromRecord(recs[0])
	return &user, nil
}

func (r *Remote) CreateUser(ctx context.Context, u accounts.UserRecord) error {
	_, err := r.client.transaction(ctx, stmt(
		`INSERT INTO users (id, name, email, role, title, avatar_url, password_hash, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, string(u.Role), u.Title, u.AvatarURL, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	))
	return storeErr("create", entityUser, err)
}

func (r *Remote) UpdateUser(ctx context.Context, u accounts.UserRecord) error {
	sets, err := r.client.transaction(ctx, stmt(
		`UPDATE users SET name = ?, email = ?, role = ?, title = ?, avatar_url = ?, password_hash = ?, updated_at = ?
WHERE id = ?`,
		u.Name, u.Email, string(u.Role), u.Title, u.AvatarURL, u.PasswordHash, u.UpdatedAt, u.ID,
	))
	return storeErr("update", entityUser, requireAffected(sets, err))
}

func (r *Remote) DeleteUser(ctx context.Context, id string) error {
	sets, err := r.client.transaction(ctx, stmt("DELETE FROM users WHERE id = ?", id))
	return storeErr("delete", entityUser, requireAffected(sets, err))
}
