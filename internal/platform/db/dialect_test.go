package db

import "testing"

func TestRebindPostgres(t *testing.T) {
	got := Postgres.Rebind("SELECT * FROM screens WHERE id = ? AND title = '?' AND status IN (?, ?)")
	want := "SELECT * FROM screens WHERE id = $1 AND title = '?' AND status IN ($2, $3)"
	if got != want {
		t.Fatalf("Rebind = %q, want %q", got, want)
	}
}

func TestRebindSQLiteIsIdentity(t *testing.T) {
	q := "UPDATE screens SET popular_times = ? WHERE id = ?"
	if got := SQLite.Rebind(q); got != q {
		t.Fatalf("Rebind = %q, want unchanged", got)
	}
}

func TestParseDialect(t *testing.T) {
	cases := map[string]Dialect{
		"sqlite":   SQLite,
		"SQLite3":  SQLite,
		"pgx":      Postgres,
		"postgres": Postgres,
	}
	for in, want := range cases {
		got, err := ParseDialect(in)
		if err != nil {
			t.Fatalf("ParseDialect(%q): unexpected error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseDialect(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := ParseDialect("mysql"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestPlaceholders(t *testing.T) {
	if got := Placeholders(3); got != "?, ?, ?" {
		t.Fatalf("Placeholders(3) = %q", got)
	}
	if got := Placeholders(0); got != "" {
		t.Fatalf("Placeholders(0) = %q, want empty", got)
	}
}

func TestSqliteDSN(t *testing.T) {
	got := sqliteDSN("data/app.db")
	want := "file:data/app.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	if got != want {
		t.Fatalf("sqliteDSN = %q, want %q", got, want)
	}
}
