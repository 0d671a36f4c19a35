/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

// Package devicestore persists discovered headbands so scans survive
// restarts and a preferred device can be dialed without rescanning.
package devicestore

import (
	"time"

	"go.etcd.io/bbolt"
	"sigs.k8s.io/yaml"

	"github.com/amused-dev/go-amused/pkg/log"
	"github.com/amused-dev/go-amused/pkg/transport"
)

const (
	DevicesBucket = "devices"
	MetaBucket    = "meta"
	PreferredKey  = "preferred"
)

// Record is one known headband. Stored yaml-marshaled, keyed by
// address.
type Record struct {
	Name     string    `json:"name"`
	Address  string    `json:"address"`
	RSSI     int16     `json:"rssi"`
	LastSeen time.Time `json:"lastSeen"`
}

type Store struct {
	db *bbolt.DB
}

func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(DevicesBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(MetaBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put inserts or refreshes one device record.
func (s *Store) Put(rec Record) error {
	log.Debug("Registering device %s (%s)", rec.Name, rec.Address)
	data, err := yaml.Marshal(&rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(DevicesBucket)).Put([]byte(rec.Address), data)
	})
}

// PutDiscovered stores the result of a scan.
func (s *Store) PutDiscovered(infos []transport.DeviceInfo) error {
	for _, info := range infos {
		rec := Record{
			Name:     info.Name,
			Address:  info.Address,
			RSSI:     info.RSSI,
			LastSeen: info.SeenAt,
		}
		if err := s.Put(rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Get(address string) (Record, error) {
	var rec Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(DevicesBucket)).Get([]byte(address))
		if data == nil {
			return ErrDeviceNotFound{Address: address}
		}
		return yaml.Unmarshal(data, &rec)
	})
	return rec, err
}

func (s *Store) List() ([]Record, error) {
	var recs []Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(DevicesBucket)).ForEach(func(_, data []byte) error {
			var rec Record
			if err := yaml.Unmarshal(data, &rec); err != nil {
				return err
			}
			recs = append(recs, rec)
			return nil
		})
	})
	return recs, err
}

// SetPreferred marks one known device as the default dial target. The
// device must already be registered.
func (s *Store) SetPreferred(address string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(DevicesBucket)).Get([]byte(address)) == nil {
			return ErrDeviceNotFound{Address: address}
		}
		return tx.Bucket([]byte(MetaBucket)).Put([]byte(PreferredKey), []byte(address))
	})
}

// Preferred returns the record marked by SetPreferred.
func (s *Store) Preferred() (Record, error) {
	var address string
	if err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(MetaBucket)).Get([]byte(PreferredKey))
		if data == nil {
			return ErrNoPreferredDevice{}
		}
		address = string(data)
		return nil
	}); err != nil {
		return Record{}, err
	}
	return s.Get(address)
}
