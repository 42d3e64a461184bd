package main

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
	"github.com/fatih/color"
	"github.com/pkg/errors"
)

var auditBucket = []byte("runs")

// auditEntry is one report run: when it ran, what it kept and what it threw
// away. Entries are append-only and keyed by timestamp.
type auditEntry struct {
	RunAt      time.Time
	Year       int
	Included   int
	Excluded   int
	Reasons    map[string]int
	Exclusions []Exclusion
}

func appendAudit(path string, e auditEntry) error {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return errors.Wrapf(err, "opening audit log %s", path)
	}
	defer db.Close()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return errors.Wrap(err, "encoding audit entry")
	}
	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(auditBucket)
		if err != nil {
			return err
		}
		key := []byte(e.RunAt.UTC().Format(time.RFC3339Nano))
		return b.Put(key, buf.Bytes())
	})
}

func dumpAudit(path string) error {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return errors.Wrapf(err, "opening audit log %s", path)
	}
	defer db.Close()

	return db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(auditBucket)
		if b == nil {
			fmt.Println("audit log is empty")
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var e auditEntry
			if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&e); err != nil {
				return errors.Wrapf(err, "decoding audit entry %s", k)
			}
			color.New(color.FgGreen).Printf("%s year=%d included=%d excluded=%d\n",
				e.RunAt.Format(time.RFC3339), e.Year, e.Included, e.Excluded)
			for _, reason := range reasonOrder {
				if n := e.Reasons[reason]; n > 0 {
					fmt.Printf("  %-20s %d\n", reason, n)
				}
			}
		}
		return nil
	})
}
