// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package property

import (
	"encoding/json"
	"fmt"
	"io"
)

type printable struct {
	ID        uint32    `json:"id"`
	Ecosystem Ecosystem `json:"ecosystem"`
	*Entry
}

// MarshalText - ecosystem name for JSON
func (e Ecosystem) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// PrintAll - write every stored property as one JSON object per line
func (r *Registry) PrintAll(w io.Writer) error {
	encoder := json.NewEncoder(w)
	count := 0
	err := r.Map(func(id uint32, entry *Entry) error {
		count += 1
		return encoder.Encode(printable{
			ID:        id,
			Ecosystem: EcosystemOf(id),
			Entry:     entry,
		})
	})
	if nil != err {
		return err
	}
	_, err = fmt.Fprintf(w, "# properties: %d\n", count)
	return err
}
