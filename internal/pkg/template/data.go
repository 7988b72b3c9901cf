package template

import "time"

//OwnerType tells who owns a template
type OwnerType string

const (
	//OwnerUser template belongs to a user
	OwnerUser OwnerType = "user"
	//OwnerSystem template is visible for everyone
	OwnerSystem OwnerType = "system"
)

//User is an owner of templates
type User struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	CreatedAt time.Time `gorm:"column:createdAt" json:"createdAt"`
}

//Template is a summary prompt template stored for MAIE processing
type Template struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"type:text;not null" json:"name"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	OwnerType OwnerType `gorm:"column:ownerType;size:16;not null" json:"ownerType"`
	OwnerID   *string   `gorm:"column:ownerId;size:64;index" json:"ownerId,omitempty"`
	Owner     *User     `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

//OwnedBy tells if user can modify the template
func (t *Template) OwnedBy(userID string) bool {
	return t.OwnerType == OwnerUser && t.OwnerID != nil && *t.OwnerID == userID
}
