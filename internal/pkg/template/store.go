package template

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//ErrNotFound is returned when there is no template
var ErrNotFound = errors.New("Template not found")

//DBProvider returns a shared gorm connection
type DBProvider interface {
	DB() (*gorm.DB, error)
}

//Store keeps templates in a relational db
type Store struct {
	provider DBProvider
}

//NewStore creates store
func NewStore(provider DBProvider) (*Store, error) {
	if provider == nil {
		return nil, errors.New("No db provider")
	}
	return &Store{provider: provider}, nil
}

func (s *Store) db(ctx context.Context) (*gorm.DB, error) {
	db, err := s.provider.DB()
	if err != nil {
		return nil, err
	}
	return db.WithContext(ctx), nil
}

//Create saves new template, assigns a new ID if it is empty.
//The owner user record is created if missing
func (s *Store) Create(ctx context.Context, t *Template) (*Template, error) {
	db, err := s.db(ctx)
	if err != nil {
		return nil, err
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.OwnerType == "" {
		t.OwnerType = OwnerUser
	}
	if t.OwnerID != nil {
		if err := ensureUser(db, *t.OwnerID); err != nil {
			return nil, err
		}
	}
	if err := db.Omit(clause.Associations).Create(t).Error; err != nil {
		return nil, errors.Wrapf(err, "Can't create template")
	}
	return t, nil
}

func ensureUser(db *gorm.DB, id string) error {
	err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&User{ID: id}).Error
	return errors.Wrapf(err, "Can't save user %s", id)
}

//Get returns template by ID
func (s *Store) Get(ctx context.Context, id string) (*Template, error) {
	db, err := s.db(ctx)
	if err != nil {
		return nil, err
	}
	var res Template
	if err := db.Where("id = ?", id).Take(&res).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "Can't load template %s", id)
	}
	return &res, nil
}

//List returns user's templates and system ones
func (s *Store) List(ctx context.Context, userID string) ([]*Template, error) {
	db, err := s.db(ctx)
	if err != nil {
		return nil, err
	}
	var res []*Template
	err = db.Where(`"ownerId" = ? OR "ownerType" = ?`, userID, string(OwnerSystem)).
		Order(`"createdAt"`).Find(&res).Error
	if err != nil {
		return nil, errors.Wrap(err, "Can't list templates")
	}
	return res, nil
}

//Update changes name and content
func (s *Store) Update(ctx context.Context, id, name, content string) (*Template, error) {
	db, err := s.db(ctx)
	if err != nil {
		return nil, err
	}
	res := db.Model(&Template{ID: id}).Updates(map[string]interface{}{"name": name, "content": content})
	if res.Error != nil {
		return nil, errors.Wrapf(res.Error, "Can't update template %s", id)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

//Delete removes template
func (s *Store) Delete(ctx context.Context, id string) error {
	db, err := s.db(ctx)
	if err != nil {
		return err
	}
	res := db.Where("id = ?", id).Delete(&Template{})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "Can't delete template %s", id)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
