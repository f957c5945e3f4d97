package store

import (
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	return New(db), mock, func() { db.Close() }
}

func TestStartRunReturnsGeneratedID(t *testing.T) {
	s, mock, closeDB := newMockStore(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO correlate_run")).
		WithArgs("llpg", "planning", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"run_id"}).AddRow(int64(7)))

	id, err := s.StartRun(false, "llpg", "planning")
	if err != nil {
		t.Fatalf("StartRun returned error: %v", err)
	}
	if id != 7 {
		t.Errorf("StartRun id = %d, want 7", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSaveMatchesIsTransactionalAndUpsert(t *testing.T) {
	s, mock, closeDB := newMockStore(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO correlate_match (run_id, value_a, value_b, score) VALUES ($1, $2, $3, $4) ON CONFLICT (run_id, value_a, value_b) DO UPDATE SET score = EXCLUDED.score"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO correlate_match")).
		WithArgs(int64(1), []byte(`"a"`), []byte(`"b"`), 0.75).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := s.SaveMatches(false, []MatchRecord{{RunID: 1, ValueA: "a", ValueB: "b", Score: 0.75}})
	if err != nil {
		t.Fatalf("SaveMatches returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSaveMatchesNoopOnEmptyInput(t *testing.T) {
	s, mock, closeDB := newMockStore(t)
	defer closeDB()

	if err := s.SaveMatches(false, nil); err != nil {
		t.Fatalf("SaveMatches returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected DB interaction for empty input: %v", err)
	}
}

func TestSaveMatchesRollsBackOnInsertFailure(t *testing.T) {
	s, mock, closeDB := newMockStore(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO correlate_match"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO correlate_match")).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := s.SaveMatches(false, []MatchRecord{{RunID: 1, ValueA: "a", ValueB: "b", Score: 0.5}})
	if err == nil {
		t.Fatalf("expected error from failed insert")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRunStatsAggregatesMatchAndUnmatchedCounts(t *testing.T) {
	s, mock, closeDB := newMockStore(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*), COALESCE(AVG(score), 0), COALESCE(MIN(score), 0), COALESCE(MAX(score), 0)")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count", "avg", "min", "max"}).AddRow(5, 0.8, 0.4, 1.0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM correlate_unmatched")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	stats, err := s.RunStats(false, 3)
	if err != nil {
		t.Fatalf("RunStats returned error: %v", err)
	}
	if stats.MatchCount != 5 || stats.UnmatchedCount != 2 {
		t.Errorf("stats = %+v, want MatchCount=5 UnmatchedCount=2", stats)
	}
	if stats.MaxScore != 1.0 {
		t.Errorf("MaxScore = %v, want 1.0", stats.MaxScore)
	}
}

func TestListMatchesOrdersByScoreDescending(t *testing.T) {
	s, mock, closeDB := newMockStore(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value_a, value_b, score FROM correlate_match WHERE run_id = $1 ORDER BY score DESC")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"value_a", "value_b", "score"}).
			AddRow([]byte(`"a1"`), []byte(`"b1"`), 0.9).
			AddRow([]byte(`"a2"`), []byte(`"b2"`), 0.5))

	matches, err := s.ListMatches(false, 1)
	if err != nil {
		t.Fatalf("ListMatches returned error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("len(matches) = %d, want 2", len(matches))
	}
	if matches[0].Score != 0.9 || matches[1].Score != 0.5 {
		t.Errorf("matches = %+v, want scores [0.9, 0.5] in order", matches)
	}
}

func TestListUnmatchedFiltersBySide(t *testing.T) {
	s, mock, closeDB := newMockStore(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT side, value FROM correlate_unmatched WHERE run_id = $1 AND side = $2")).
		WithArgs(int64(1), "a").
		WillReturnRows(sqlmock.NewRows([]string{"side", "value"}).AddRow("a", []byte(`"residual"`)))

	unmatched, err := s.ListUnmatched(false, 1, "a")
	if err != nil {
		t.Fatalf("ListUnmatched returned error: %v", err)
	}
	if len(unmatched) != 1 || unmatched[0].Side != "a" {
		t.Errorf("unmatched = %+v, want one row with side=a", unmatched)
	}
}
