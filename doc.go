// Copyright 2021 Mark Siner. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

/*
Package fl2k is the top-level package of the osmo-fl2k module.
See the device package for direct access to the FL2000 register and
transport layer, or the stream package for the double-buffered
streaming engine built on top of it.
*/
package fl2k
