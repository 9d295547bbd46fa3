package database

import (
	"context"

	"github.com/rpupo63/consulting-site-backend/accounts"
	"github.com/rpupo63/consulting-site-backend/models"
)

func (l *Local) ListUsers(ctx context.Context) ([]accounts.User, error) {
	var rows []models.User
	if err := l.db.WithContext(ctx).Order("name ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, storeErr("list", entityUser, err)
	}
	users := make([]accounts.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, userRecordFromModel(row).User)
	}
	return users, nil
}

func (l *Local) FindUser(ctx context.Context, id string) (*accounts.UserRecord, error) {
	return l.findUser(ctx, "id = ?", id)
}

func (l *Local) FindUserByEmail(ctx context.Context, email string) (*accounts.UserRecord, error) {
	return l.findUser(ctx, "email = ?", email)
}

func (l *Local) findUser(ctx context.Context, query string, value string) (*accounts.UserRecord, error) {
	var row models.User
	if err := l.db.WithContext(ctx).Where(query, value).Take(&row).Error; err != nil {
		return nil, storeErr("find", entityUser, err)
	}
	rec := userRecordFromModel(row)
	return &rec, nil
}

func (l *Local) CreateUser(ctx context.Context, u accounts.UserRecord) error {
	model := userModel(u)
	return storeErr("create", entityUser, l.db.WithContext(ctx).Create(&model).Error)
}

func (l *Local) UpdateUser(ctx context.Context, u accounts.UserRecord) error {
	res := l.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", u.ID).Updates(map[string]any{
		"name":          u.Name,
		"email":         u.Email,
		"role":          string(u.Role),
		"title":         u.Title,
		"avatar_url":    u.AvatarURL,
		"password_hash": u.PasswordHash,
		"updated_at":    u.UpdatedAt.UTC(),
	})
	return storeErr("update", entityUser, affected(res))
}

// DeleteUser is refused by the posts foreign key while the user authors posts.
func (l *Local) DeleteUser(ctx context.Context, id string) error {
	res := l.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	return storeErr("delete", entityUser, affected(res))
}
