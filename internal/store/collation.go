package store

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// driverOnce holds a *sync.Once per driver name. sql.Register panics on
// duplicates, and a name must not be handed out before it is registered.
var driverOnce sync.Map

// driverFor returns the name of a go-sqlite3 driver whose connections carry
// the label_order collation for lang and the fold() scalar function.
func driverFor(lang string) (string, error) {
	if lang == "" {
		lang = "en"
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return "", fmt.Errorf("parse language %q: %w", lang, err)
	}
	name := "sqlite3_termit_" + tag.String()
	once, _ := driverOnce.LoadOrStore(name, new(sync.Once))
	once.(*sync.Once).Do(func() { registerDriver(name, tag) })
	return name, nil
}

func registerDriver(name string, tag language.Tag) {
	sql.Register(name, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			// A collator keeps scratch buffers; one per connection.
			col := collate.New(tag, collate.IgnoreCase, collate.Loose)
			if err := conn.RegisterCollation("label_order", col.CompareString); err != nil {
				return fmt.Errorf("register label_order collation: %w", err)
			}
			if err := conn.RegisterFunc("fold", Fold, true); err != nil {
				return fmt.Errorf("register fold function: %w", err)
			}
			return nil
		},
	})
}

// Fold returns the Unicode case-folded, NFC-normalized form of s. It backs
// both the SQL fold() function and Go-side comparisons so the two agree.
// SQLite's built-in lower() only handles ASCII.
func Fold(s string) string {
	return norm.NFC.String(cases.Fold().String(s))
}
