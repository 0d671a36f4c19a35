/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package metrics

import (
	"errors"
)

// ErrInsufficientData means the engine has not yet accumulated enough
// signal for a stable result. It is a not-ready condition, not a
// failure; callers keep feeding frames.
var ErrInsufficientData = errors.New("insufficient data")
