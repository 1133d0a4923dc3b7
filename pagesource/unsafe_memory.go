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

package pagesource

// NewUnsafeMemory returns the empty capability table for a stream backed
// directly by caller-owned memory. No slot is populated: there is nothing
// to refill from, nothing to close, and the length is whatever the
// caller's fixed span already reports — so the stream built on top of
// this never even holds a non-nil *Source.
func NewUnsafeMemory() *Source {
	return nil
}
