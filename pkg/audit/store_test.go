package audit

import (
	"errors"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestStoreSave(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStore(db)

	event := ConfigUpdateEvent{
		User:        "alice",
		ClientIP:    "10.0.0.1",
		PreviousMd5: "aaa",
		Md5:         "bbb",
		Success:     true,
	}

	mock.ExpectExec(`INSERT INTO audit_messages`).
		WithArgs(
			FacilityLocal0,      // facility
			int(SeverityNotice), // severity
			sqlmock.AnyArg(),    // timestamp
			sqlmock.AnyArg(),    // hostname
			"cruise",            // appname
			sqlmock.AnyArg(),    // procid
			"config-update",     // msgid
			sqlmock.AnyArg(),    // sdata (JSON)
			event.Message(),     // message
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.Save(event); err != nil {
		t.Errorf("Save() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStoreSaveError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`INSERT INTO audit_messages`).WillReturnError(errors.New("relation does not exist"))

	err = NewStore(db).Save(AccessDeniedEvent{User: "mallory", Operation: "update", Resource: "configuration"})
	if err == nil {
		t.Error("Save() expected error")
	}
}

func TestStoreWithoutDB(t *testing.T) {
	if err := NewStore(nil).Save(ConfigFetchEvent{User: "root"}); err != nil {
		t.Errorf("Save() error = %v", err)
	}
}

func TestLogPersistsToStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	DefaultLogger.SetWriter(discard{})
	SetEnabled(true)
	SetStore(NewStore(db))
	t.Cleanup(func() {
		SetStore(nil)
		DefaultLogger.SetWriter(os.Stdout)
	})

	mock.ExpectExec(`INSERT INTO audit_messages`).WillReturnResult(sqlmock.NewResult(1, 1))

	Log(ConfigReloadEvent{Path: "cruise-config.yml", Md5: "abc"})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
