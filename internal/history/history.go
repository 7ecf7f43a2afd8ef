// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package history stores sensor samples in a bbolt database.
package history

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/GermanBionicSystems/shtdevices/shtcx"
)

// samplesBucket holds samples keyed by a big-endian sequence number, so
// cursor order is insertion order.
const samplesBucket = "samples"

var errNoBucket = errors.New("history: samples bucket not found")

// Sample is one stored reading.
type Sample struct {
	Time         time.Time `json:"time"`
	Mode         string    `json:"mode"`
	MilliCelsius int32     `json:"temperature_mc"`
	MilliPercent int32     `json:"humidity_mpct"`
}

// NewSample builds a Sample from a measurement taken at t.
func NewSample(t time.Time, mode shtcx.PowerMode, m shtcx.Measurement) Sample {
	return Sample{
		Time:         t,
		Mode:         mode.String(),
		MilliCelsius: m.Temperature.MilliCelsius(),
		MilliPercent: m.Humidity.MilliPercent(),
	}
}

// Measurement returns the stored values as an shtcx.Measurement.
func (s Sample) Measurement() shtcx.Measurement {
	return shtcx.Measurement{
		Temperature: shtcx.Temperature(s.MilliCelsius),
		Humidity:    shtcx.Humidity(s.MilliPercent),
	}
}

// Store is a bbolt backed sample log.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(samplesBucket)); err != nil {
			return fmt.Errorf("failed to create samples bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Append stores a sample.
func (s *Store) Append(sample Sample) error {
	data, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to marshal sample: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(samplesBucket))
		if bucket == nil {
			return errNoBucket
		}
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		var key [8]byte
		binary.BigEndian.PutUint64(key[:], seq)
		return bucket.Put(key[:], data)
	})
}

// Recent returns up to limit samples, oldest first.
func (s *Store) Recent(limit int) ([]Sample, error) {
	var out []Sample
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(samplesBucket))
		if bucket == nil {
			return errNoBucket
		}
		c := bucket.Cursor()
		for k, v := c.Last(); k != nil && len(out) < limit; k, v = c.Prev() {
			var sample Sample
			if err := json.Unmarshal(v, &sample); err != nil {
				return fmt.Errorf("failed to unmarshal sample: %w", err)
			}
			out = append(out, sample)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Len returns the number of stored samples.
func (s *Store) Len() (int, error) {
	n := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(samplesBucket))
		if bucket == nil {
			return errNoBucket
		}
		n = bucket.Stats().KeyN
		return nil
	})
	return n, err
}

// Trim keeps only the newest keep samples.
func (s *Store) Trim(keep int) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(samplesBucket))
		if bucket == nil {
			return errNoBucket
		}
		excess := bucket.Stats().KeyN - keep
		if excess <= 0 {
			return nil
		}
		var keys [][]byte
		c := bucket.Cursor()
		for k, _ := c.First(); k != nil && len(keys) < excess; k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		for _, k := range keys {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
