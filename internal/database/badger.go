package database

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/thereayou/room-chat/internal/models"
	"github.com/thereayou/room-chat/internal/services"
)

const (
	messagePrefix = "msg:"
	indexPrefix   = "id:"
	sequenceKey   = "seq:messages"
)

var _ services.MessageStore = (*BadgerStore)(nil)

// BadgerStore keeps messages in an embedded badger database.
//
// Message keys are "msg:{hex(room)}:{unix_nano 19}:{seq 20}" so a forward
// prefix scan yields a room's history by creation time, then by insertion
// order. The room is hex encoded so one room name can never be a key prefix
// of another. "id:{uuid}" points at the message key.
type BadgerStore struct {
	db  *badger.DB
	seq *badger.Sequence
	log *slog.Logger
}

type storedMessage struct {
	ID        uuid.UUID  `json:"id"`
	Seq       int64      `json:"seq"`
	Author    string     `json:"author"`
	Text      string     `json:"text"`
	Room      string     `json:"room"`
	CreatedAt time.Time  `json:"created_at"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
}

func OpenBadger(path string, log *slog.Logger) (*BadgerStore, error) {
	return openBadger(badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING), log)
}

func OpenBadgerInMemory(log *slog.Logger) (*BadgerStore, error) {
	return openBadger(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR), log)
}

func openBadger(opts badger.Options, log *slog.Logger) (*BadgerStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	seq, err := db.GetSequence([]byte(sequenceKey), 128)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	return &BadgerStore{db: db, seq: seq, log: log}, nil
}

func roomPrefix(room string) []byte {
	return []byte(messagePrefix + hex.EncodeToString([]byte(room)) + ":")
}

func messageKey(m *models.Message) []byte {
	return append(roomPrefix(m.Room), fmt.Sprintf("%019d:%020d", m.CreatedAt.UnixNano(), m.Seq)...)
}

func indexKey(id uuid.UUID) []byte {
	return []byte(indexPrefix + id.String())
}

func encodeMessage(m *models.Message) ([]byte, error) {
	return json.Marshal(storedMessage{
		ID:        m.ID,
		Seq:       m.Seq,
		Author:    m.Author,
		Text:      m.Text,
		Room:      m.Room,
		CreatedAt: m.CreatedAt,
		EditedAt:  m.EditedAt,
	})
}

func decodeMessage(value []byte) (models.Message, error) {
	var stored storedMessage
	if err := json.Unmarshal(value, &stored); err != nil {
		return models.Message{}, err
	}
	return models.Message{
		ID:        stored.ID,
		Seq:       stored.Seq,
		Author:    stored.Author,
		Text:      stored.Text,
		Room:      stored.Room,
		CreatedAt: stored.CreatedAt,
		EditedAt:  stored.EditedAt,
	}, nil
}

func (s *BadgerStore) Append(ctx context.Context, author, text, room string) (*models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	message, err := newMessage(author, text, room)
	if err != nil {
		return nil, err
	}

	n, err := s.seq.Next()
	if err != nil {
		return nil, fmt.Errorf("next message sequence: %w", err)
	}
	message.Seq = int64(n) + 1

	value, err := encodeMessage(message)
	if err != nil {
		return nil, err
	}
	key := messageKey(message)

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, value); err != nil {
			return err
		}
		return txn.Set(indexKey(message.ID), key)
	})
	if err != nil {
		return nil, err
	}
	return message, nil
}

func (s *BadgerStore) ListByRoom(ctx context.Context, room string) ([]models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	messages := make([]models.Message, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := roomPrefix(room)
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				message, err := decodeMessage(value)
				if err != nil {
					return err
				}
				messages = append(messages, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// load resolves the id index and returns the message with its primary key.
func load(txn *badger.Txn, id uuid.UUID) (*models.Message, []byte, error) {
	item, err := txn.Get(indexKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil, services.ErrMessageNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	key, err := item.ValueCopy(nil)
	if err != nil {
		return nil, nil, err
	}

	item, err = txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil, services.ErrMessageNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	var message models.Message
	err = item.Value(func(value []byte) error {
		message, err = decodeMessage(value)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return &message, key, nil
}

func (s *BadgerStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var message *models.Message
	err := s.db.View(func(txn *badger.Txn) error {
		m, _, err := load(txn, id)
		message = m
		return err
	})
	if err != nil {
		return nil, err
	}
	return message, nil
}

func (s *BadgerStore) DeleteByID(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	removed := false
	err := s.db.Update(func(txn *badger.Txn) error {
		_, key, err := load(txn, id)
		if errors.Is(err, services.ErrMessageNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		if err := txn.Delete(indexKey(id)); err != nil {
			return err
		}
		removed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

func (s *BadgerStore) EditText(ctx context.Context, id uuid.UUID, text string) (*models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateText(text); err != nil {
		return nil, err
	}

	var message *models.Message
	err := s.db.Update(func(txn *badger.Txn) error {
		m, key, err := load(txn, id)
		if err != nil {
			return err
		}
		editedAt := now()
		m.Text = text
		m.EditedAt = &editedAt

		value, err := encodeMessage(m)
		if err != nil {
			return err
		}
		message = m
		return txn.Set(key, value)
	})
	if err != nil {
		return nil, err
	}
	return message, nil
}

func (s *BadgerStore) Close() error {
	if err := s.seq.Release(); err != nil {
		s.log.Warn("Failed to release message sequence", "error", err)
	}
	return s.db.Close()
}
