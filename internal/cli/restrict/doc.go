// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package restrict allows programs to use [Landlock] LSM on supported systems
// for sandboxing filesystem access. On unsupported systems it does nothing.
//
// [Landlock]: https://landlock.io
package restrict
