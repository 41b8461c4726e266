// Package credstore persists the session cookie pair that unlocks
// subscriber-restricted VODs.
package credstore

import (
	"encoding/json"
	"errors"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var ErrNoCredentials = errors.New("no stored credentials")

var buckets = struct {
	Metadata    []byte
	Credentials []byte
}{
	Metadata:    []byte("__metadata__"),
	Credentials: []byte("credentials"),
}

var metadataKeys = struct {
	Version []byte
}{
	Version: []byte("version"),
}

const currentVersion byte = 1

// sessionKey is the single record the store holds.
var sessionKey = []byte("session")

// Credentials is the NID_AUT/NID_SES cookie pair.
type Credentials struct {
	Aut string `json:"nid_aut"`
	Ses string `json:"nid_ses"`
}

type Store interface {
	// Load returns the stored credentials, or ErrNoCredentials.
	Load() (*Credentials, error)
	Save(*Credentials) error
	Delete() error
	Close() error
}

type store struct {
	*bolt.DB
}

// Open opens (creating if necessary) the credential store at path.
func Open(path string) (Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		metadata, err := tx.CreateBucketIfNotExists(buckets.Metadata)
		if err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(buckets.Credentials); err != nil {
			return err
		}
		version := metadata.Get(metadataKeys.Version)
		if version == nil {
			return metadata.Put(metadataKeys.Version, []byte{currentVersion})
		}
		if len(version) != 1 || version[0] != currentVersion {
			return fmt.Errorf("unexpected credential store version: %v", version)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &store{db}, nil
}

func (s *store) Load() (*Credentials, error) {
	var creds *Credentials
	err := s.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(buckets.Credentials).Get(sessionKey)
		if data == nil {
			return ErrNoCredentials
		}
		creds = &Credentials{}
		return json.Unmarshal(data, creds)
	})
	if err != nil {
		return nil, err
	}
	return creds, nil
}

func (s *store) Save(creds *Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return s.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(buckets.Credentials).Put(sessionKey, data)
	})
}

func (s *store) Delete() error {
	return s.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(buckets.Credentials).Delete(sessionKey)
	})
}
