// Copyright 2019 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package opt

// ProjectedRowIDColumnName is the name of the hidden leading column of every
// project-set. The column numbers the rows generated from one input row, so
// together with the input key it identifies an output row.
const ProjectedRowIDColumnName = "projected_row_id"

// MaxVerbosity is the highest logging verbosity the optimizer distinguishes.
const MaxVerbosity = 3
