// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensordict provides a nested, string-keyed container for batched
// tensors sharing common leading batch dimensions.
//
// # Overview
//
// A TensorDict groups tensors that travel together: the observations,
// actions and rewards of a reinforcement-learning transition, or the named
// inputs of a traced model call. Every leaf's shape starts with the tree's
// batch shape, and batch operations (Index, Reshape, Stack, Cat) apply to
// all leaves at once while keeping them aligned.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/tensordict/tensor"
//	    "github.com/born-ml/tensordict/tensordict"
//	)
//
//	func main() {
//	    obs, _ := tensor.Zeros(tensor.Shape{32, 84, 84}, tensor.Float32)
//	    act, _ := tensor.Zeros(tensor.Shape{32}, tensor.Int64)
//
//	    td, _ := tensordict.New(map[string]tensordict.Value{
//	        "obs":    obs,
//	        "action": act,
//	    }, tensor.Shape{32})
//
//	    first, _ := td.Index(tensor.At(0))     // batch [] sample
//	    pair, _ := tensordict.Stack([]*tensordict.TensorDict{td, td}, 0)
//	}
//
// # Flattening
//
// Flatten decomposes a tree into its leaves plus a TreeSpec, a hashable
// structure descriptor independent of leaf values. A tracing compiler keys
// its retrace cache on the descriptor and calls Unflatten to rebuild trees
// around substituted leaves.
//
// All operations are copy-producing: a TensorDict is never mutated, and
// results share untouched sub-branches and leaf storage with their inputs.
package tensordict
