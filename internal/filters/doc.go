// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package filters selects container members to leave out of a comparison.
//
// An exclusion is a spec of one or more key-operator-target expressions joined
// by a delimiter (default: comma, override with DEEPCMP_FILTER_DELIM). A
// member is excluded when it matches every expression of a spec. Several
// specs form a Set, and a member matching any of them is excluded.
//
// Keys:
//
//   - path : the member path inside its container
//   - name : the last element of path
//   - size : size in bytes of the side that exists (left when both do)
//   - meta : the container metadata line of that side
//
// Operators include:
//
//   - = : exact match (supports negation with !=)
//   - ~ : case-insensitive match (supports negation with !~)
//   - ^ : prefix match (supports negation with !^)
//   - @ : contains substring (supports negation with !@)
//   - / : regex match (supports negation with !/)
//   - % : glob match as in path.Match (supports negation with !%)
//   - < : less than (numeric for size)
//   - > : greater than (numeric for size)
//
// A spec whose key is not one of the above is a glob matched against both
// path and name, so "*.pyc" and "docs/*" work as expected.
//
// Examples:
//
//   - "*.pyc" : every compiled python file
//   - "path^vendor/" : everything below vendor/
//   - "name/^\.#,size<1024" : small editor lock files
package filters
