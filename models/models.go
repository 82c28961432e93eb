// Package models holds the gorm entities persisted by the repositories.
package models

// All lists every model migrated at boot.
func All() []interface{} {
	return []interface{}{&User{}, &Token{}, &Article{}, &Comment{}, &Report{}, &ArticleView{}}
}
