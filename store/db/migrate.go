package db

import (
	"bytes"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"text/template"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed schema/*.sql
var embedFiles embed.FS

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

type MigrateData struct {
	Driver string
}

// Migrate runs the embedded schema migrations against db. The schema files
// are templates rendered with data so column types can follow the driver.
func Migrate(db *sql.DB, data MigrateData) error {
	d, err := iofs.New(&templateFS{
		data: data,
		FS:   embedFiles,
	}, "schema")
	if err != nil {
		return err
	}

	var driver database.Driver
	switch data.Driver {
	case DriverMySQL:
		driver, err = mysql.WithInstance(db, &mysql.Config{})
	case DriverSQLite:
		driver, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	default:
		return fmt.Errorf("unsupported db driver %q", data.Driver)
	}

	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", d, data.Driver, driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

type templateFile struct {
	io.ReadCloser
	info *fileInfoWithSize
}

func (t *templateFile) Stat() (fs.FileInfo, error) {
	return t.info, nil
}

type templateFS struct {
	data any
	embed.FS
}

func (t *templateFS) Open(name string) (fs.File, error) {
	file, err := t.FS.Open(name)
	if err != nil {
		return nil, err
	}

	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		return t.FS.Open(name)
	}

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, t.data); err != nil {
		return nil, err
	}

	return &templateFile{
		ReadCloser: io.NopCloser(bytes.NewReader(buf.Bytes())),
		info:       &fileInfoWithSize{info, int64(buf.Len())},
	}, nil
}

type fileInfoWithSize struct {
	fs.FileInfo
	size int64
}

func (f *fileInfoWithSize) Size() int64 {
	return f.size
}
