// Package scoring adapts the external signal collaborators: the contradiction
// scorer, the writing-style drift scorer and the media analyzer. Each adapter
// makes a single attempt per call and reports explicit rejections as
// *schemas.InputError.
package scoring

import jsoniter "github.com/json-iterator/go"

var json = jsoniter.ConfigCompatibleWithStandardLibrary
