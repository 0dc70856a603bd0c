// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chainsync

import (
	"context"
	"errors"
	"fmt"

	ogmios "github.com/blinklabs-io/gogmios"
	"github.com/blinklabs-io/gogmios/protocol/common"
)

// Intersection is the point where the client and server chains meet, along with the server tip
type Intersection struct {
	Point common.Point
	Tip   common.Tip
}

// FindIntersection asks the server for the first of the provided points which is on its chain.
// Points should be ordered most recent first. When none match, the returned error is an
// *IntersectionNotFoundError carrying the server tip
func FindIntersection(
	ctx context.Context,
	ic ogmios.Interaction,
	points []common.Point,
) (Intersection, error) {
	if len(points) == 0 {
		return Intersection{}, ErrNoPoints
	}
	result, err := ogmios.Request[findIntersectionResult](
		ctx,
		ic,
		MethodFindIntersection,
		findIntersectionParams{Points: points},
	)
	if err != nil {
		var rpcErr *ogmios.RPCError
		if errors.As(err, &rpcErr) && rpcErr.Code == ErrorCodeIntersectionNotFound {
			var data intersectionNotFoundData
			if err := rpcErr.DecodeData(&data); err != nil || data.Tip == nil {
				return Intersection{}, &ogmios.ProtocolError{
					Method: MethodFindIntersection,
					Err:    fmt.Errorf("intersection not found error without tip: %s", rpcErr.Data),
				}
			}
			return Intersection{}, &IntersectionNotFoundError{Tip: *data.Tip}
		}
		return Intersection{}, err
	}
	if result.Tip == nil {
		return Intersection{}, &ogmios.ProtocolError{
			Method: MethodFindIntersection,
			Err:    errors.New("missing tip"),
		}
	}
	if result.Intersection == nil {
		return Intersection{}, &IntersectionNotFoundError{Tip: *result.Tip}
	}
	return Intersection{
		Point: *result.Intersection,
		Tip:   *result.Tip,
	}, nil
}
