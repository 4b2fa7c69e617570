// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package pytree provides generic tree flattening over nested Go values:
// registered container types, string-keyed maps and []any slices decompose
// into leaf sequences plus hashable structure specs.
//
// The tensordict container registers itself with this framework, so a
// *TensorDict anywhere inside a nested argument structure flattens into its
// tensor leaves:
//
//	leaves, spec := pytree.Flatten(map[string]any{"inputs": td, "step": 7})
//	root, err := pytree.Unflatten(leaves, spec)
//
// Specs from structurally equal trees are Equal and share a Hash, which is
// what lets a tracing compiler reuse a compiled trace across calls that
// differ only in leaf values.
package pytree

import (
	"github.com/born-ml/tensordict/internal/pytree"

	// Registers the tensordict container's flatten/unflatten pair.
	_ "github.com/born-ml/tensordict/internal/tensordict"
)

// Type aliases for public API

// Spec describes the structure of a flattened tree.
type Spec = pytree.Spec

// FlattenFunc decomposes a registered node into children and a context.
type FlattenFunc = pytree.FlattenFunc

// UnflattenFunc reassembles a node from a context and children.
type UnflattenFunc = pytree.UnflattenFunc

// ContextEqualer lets a node context define spec equality.
type ContextEqualer = pytree.ContextEqualer

// ContextHasher lets a node context contribute a stable spec hash.
type ContextHasher = pytree.ContextHasher

// Register installs a flatten/unflatten pair for sample's concrete type.
// Registering the same type twice panics.
func Register(sample any, flatten FlattenFunc, unflatten UnflattenFunc) {
	pytree.Register(sample, flatten, unflatten)
}

// Flatten decomposes root into its leaves, in deterministic traversal
// order, and the spec describing its structure.
func Flatten(root any) ([]any, *Spec) {
	return pytree.Flatten(root)
}

// Unflatten reconstructs a tree from a leaf sequence and a spec produced
// by Flatten.
func Unflatten(leaves []any, spec *Spec) (any, error) {
	return pytree.Unflatten(leaves, spec)
}
