// Copyright 2025 TimeWtr
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pagestream implements a buffered, page-oriented input stream
// over heterogeneous byte sources: in-memory slices, memory-mapped files,
// blocking OS file reads, and non-blocking device reads.
//
// An InputStream presents one contiguous readable window (a PageSpan) at
// a time. Single-byte peek/read/advance never touch the underlying
// source once readable() has verified runway; page exhaustion, refill,
// EOF and synchronous/asynchronous waiting are handled by a single
// refill algorithm shared by both surfaces.
//
// A stream is not safe for concurrent use — exactly one goroutine may
// call its methods at a time, matching the single-owner model used
// throughout this module.
package pagestream
