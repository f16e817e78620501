package main

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	appmigrations "github.com/het-labo/stixn-dewi/migrations"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    command
		wantErr bool
	}{
		{name: "default up", args: nil, want: command{}},
		{name: "explicit up", args: []string{"up"}, want: command{}},
		{name: "down", args: []string{"down"}, want: command{down: true}},
		{name: "force", args: []string{"force", "3"}, want: command{force: true, version: 3}},
		{name: "force missing version", args: []string{"force"}, wantErr: true},
		{name: "force bad version", args: []string{"force", "x"}, wantErr: true},
		{name: "unknown", args: []string{"sideways"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCheckDB(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectPing()
	if err := checkDB(db); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	if err := checkDB(db); err == nil || !strings.Contains(err.Error(), "ping db") {
		t.Fatalf("expected ping error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}

	if err := checkDB(nil); err == nil {
		t.Fatalf("expected error for nil db")
	}
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(appmigrations.FS, "*.up.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(ups) == 0 {
		t.Fatalf("expected embedded migrations")
	}
	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		if _, err := fs.Stat(appmigrations.FS, down); err != nil {
			t.Fatalf("missing %s for %s", down, up)
		}
	}
}
