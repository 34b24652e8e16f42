package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/czh0526/cryptoconditions/conditions"
)

// treePrinter writes one line per condition, children indented below their
// threshold.
type treePrinter struct {
	w     io.Writer
	depth int
}

var _ conditions.Visitor = (*treePrinter)(nil)

func printCondition(w io.Writer, c conditions.Condition) error {
	return c.Accept(&treePrinter{w: w})
}

func (p *treePrinter) line(format string, args ...interface{}) error {
	indent := strings.Repeat("  ", p.depth)
	_, err := fmt.Fprintf(p.w, indent+format+"\n", args...)
	return err
}

func (p *treePrinter) VisitPreimage(c *conditions.Preimage) error {
	return p.line("%v preimage=%x", c.Type(), c.Preimage)
}

func (p *treePrinter) VisitSecp256k1(c *conditions.Secp256k1) error {
	return p.line("%v pubkey=%x signature=%s", c.Type(),
		c.PubKey.SerializeCompressed(), signatureHex(c.Signature))
}

func (p *treePrinter) VisitSecp256k1Hash(c *conditions.Secp256k1Hash) error {
	c = c.WithPubKeyHash()
	pkh, _ := c.PubKeyHash()
	return p.line("%v pubkey=%x pubkeyhash=%x signature=%s", c.Type(),
		c.PubKey.SerializeCompressed(), pkh, signatureHex(c.Signature))
}

func (p *treePrinter) VisitThreshold(c *conditions.Threshold) error {
	err := p.line("%v threshold=%d subconditions=%d", c.Type(),
		c.Threshold, len(c.Subconditions))
	if err != nil {
		return err
	}

	p.depth++
	defer func() { p.depth-- }()

	for _, sub := range c.Subconditions {
		if err := sub.Accept(p); err != nil {
			return err
		}
	}
	return nil
}

func (p *treePrinter) VisitEval(c *conditions.Eval) error {
	return p.line("%v code=%x", c.Type(), c.Code)
}

func (p *treePrinter) VisitAnon(c *conditions.Anon) error {
	return p.line("anon type=%v fingerprint=%x cost=%d subtypes=%s",
		c.CondType, conditions.ShrinkFingerprint(c.Fingerprint, c.CondType),
		c.Cost, subtypeNames(c.Subtypes))
}

func signatureHex(sig *ecdsa.Signature) string {
	if sig == nil {
		return "-"
	}
	return hex.EncodeToString(sig.Serialize())
}

func subtypeNames(s conditions.TypeSet) string {
	types := s.Types()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return "[" + strings.Join(names, ",") + "]"
}
