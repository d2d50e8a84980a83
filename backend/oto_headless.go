// SPDX-License-Identifier: EPL-2.0

//go:build headless

package backend

import (
	"context"

	"github.com/ik5/audsrv/server"
)

// Oto is unavailable in headless builds.
type Oto struct{}

func NewOto(*server.Server, int) (*Oto, error) { return nil, ErrNoDevice }

func (*Oto) Run(context.Context) error { return ErrNoDevice }
