// Command ccdecode decodes DER encoded crypto-condition fulfillments and
// conditions given as hex, and prints the decoded tree. Conditions can be
// kept in a bbolt database and listed later.
package main

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/czh0526/cryptoconditions/conditiondb"
	_ "github.com/czh0526/cryptoconditions/conditiondb/bdb"
	"github.com/czh0526/cryptoconditions/conditions"
	"github.com/czh0526/cryptoconditions/condstore"
	"github.com/czh0526/cryptoconditions/internal/cfgutil"
)

var (
	namespaceKey = []byte("ccdecode")

	errInterrupted = errors.New("interrupted")
)

func main() {
	err := decodeMain(os.Args[1:], os.Stdin, os.Stdout, interruptListener())
	if err != nil {
		os.Exit(1)
	}
}

// decodeMain is the real main function for ccdecode. Inputs are taken from
// the positional arguments, or one per line from stdin when there are
// none.
func decodeMain(args []string, stdin io.Reader, stdout io.Writer,
	interrupt <-chan struct{}) error {

	cfg, inputs, err := loadConfig(args)
	if err != nil {
		if isHelpErr(err) {
			fmt.Fprintln(stdout, err)
			return nil
		}
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	setLogLevels(cfg.DebugLevel)

	t := &tool{cfg: cfg, out: stdout}
	if cfg.DBPath != "" {
		if err := t.openStore(); err != nil {
			log.Errorf("Unable to open conditions database: %v", err)
			return err
		}
		defer func() {
			if err := t.db.Close(); err != nil {
				log.Errorf("Unable to close conditions database: %v", err)
			}
		}()
	}

	if cfg.List {
		return t.list()
	}

	if len(inputs) > 0 {
		stdin = strings.NewReader(strings.Join(inputs, "\n"))
	}

	quit := make(chan struct{})
	defer close(quit)

	return t.run(readInputs(stdin, quit), interrupt)
}

type tool struct {
	cfg *config
	out io.Writer

	db    conditiondb.DB
	store *condstore.Store
}

func (t *tool) openStore() error {
	exists, err := cfgutil.FileExists(t.cfg.DBPath)
	if err != nil {
		return err
	}

	if exists {
		t.db, err = conditiondb.Open("bdb", t.cfg.DBPath, true, t.cfg.DBTimeout)
	} else {
		if !t.cfg.Store {
			return fmt.Errorf("the conditions database `%v` does not "+
				"exist, run with --store to create it", t.cfg.DBPath)
		}
		if err := cfgutil.CheckCreateDir(filepath.Dir(t.cfg.DBPath)); err != nil {
			return err
		}
		log.Infof("Creating conditions database %v", t.cfg.DBPath)
		t.db, err = conditiondb.Create("bdb", t.cfg.DBPath, true, t.cfg.DBTimeout)
	}
	if err != nil {
		return err
	}

	err = conditiondb.Update(t.db, func(tx conditiondb.ReadWriteTx) error {
		ns, err := tx.CreateTopLevelBucket(namespaceKey)
		if err != nil {
			return err
		}

		t.store, err = condstore.Open(ns, t.cfg.CacheSize)
		if errors.Is(err, condstore.ErrNotCreated) {
			if err := condstore.Create(ns); err != nil {
				return err
			}
			t.store, err = condstore.Open(ns, t.cfg.CacheSize)
		}
		return err
	})
	if err != nil {
		_ = t.db.Close()
		return err
	}
	return nil
}

type input struct {
	text string
	err  error
}

// readInputs sends each non-blank line of r that is not a # comment. The
// channel is closed at the end of r or when quit is closed.
func readInputs(r io.Reader, quit <-chan struct{}) <-chan input {
	c := make(chan input)

	go func() {
		defer close(c)

		send := func(in input) bool {
			select {
			case c <- in:
				return true
			case <-quit:
				return false
			}
		}

		scanner := bufio.NewScanner(r)
		scanner.Buffer(nil, 1<<20)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if !send(input{text: line}) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			send(input{err: err})
		}
	}()

	return c
}

func (t *tool) run(inputs <-chan input, interrupt <-chan struct{}) error {
	var total, failed int
	for {
		select {
		case <-interrupt:
			return errInterrupted

		case in, ok := <-inputs:
			if !ok {
				if failed > 0 {
					return fmt.Errorf("%d of %d inputs failed to "+
						"decode", failed, total)
				}
				return nil
			}
			if in.err != nil {
				log.Errorf("Unable to read input: %v", in.err)
				return in.err
			}

			total++
			if err := t.decode(in.text); err != nil {
				log.Errorf("Input %d: %v", total, err)
				failed++
			}
		}
	}
}

func (t *tool) decode(text string) error {
	buf, err := hex.DecodeString(strings.TrimPrefix(text, "0x"))
	if err != nil {
		return fmt.Errorf("invalid hex: %w", err)
	}

	var cond conditions.Condition
	switch {
	case t.cfg.Store:
		err = conditiondb.Update(t.db, func(tx conditiondb.ReadWriteTx) error {
			anon, err := t.store.PutCondition(
				tx.ReadWriteBucket(namespaceKey), buf)
			if err != nil {
				return err
			}
			cond = anon
			return nil
		})

	case t.cfg.Condition:
		cond, err = conditions.DecodeCondition(buf)

	default:
		cond, err = conditions.DecodeFulfillmentWithOptions(
			buf, t.cfg.decodeOptions())
	}
	if err != nil {
		return err
	}

	return printCondition(t.out, cond)
}

func (t *tool) list() error {
	return conditiondb.View(t.db, func(tx conditiondb.ReadTx) error {
		ns := tx.ReadBucket(namespaceKey)
		return t.store.ForEachCondition(ns, func(c *condstore.StoredCondition) error {
			added := c.Added.UTC().Format(time.RFC3339)
			if _, err := fmt.Fprintf(t.out, "%s ", added); err != nil {
				return err
			}
			return printCondition(t.out, c.Anon)
		})
	})
}
