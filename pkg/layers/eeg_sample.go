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

package layers

/*
Annotated EEG packet as it appears on the combined-data
characteristic (header byte + 18-byte payload):

0000   df 88 08 7f 88 28 81 87 e8 7e 88 58 83 87 b8 80
0010   87 c8 7d

========
header [0]
df
====
payload [1:19], 12 x 12-bit samples MSB-first, channel-major
TP9   880 87f 882
AF7   881 87e 87e
AF8   885 883 87b
TP10  880 87c 87d

A mid-scale sample (no signal) sits near 0x800; the electrode offset
shows up as a constant bias per channel. Unit conversion to microvolts
is done by consumers, not here.

The IMU packet (header f4) is 3 sample sets of accel xyz + gyro xyz,
16-bit each:

0000   f4 3f f0 00 10 40 10 00 01 00 02 ff fe 3f ef 00
0010   11 40 0f 00 00 00 03 ff fd 3f f1 00 0f 40 11 00
0020   02 00 01 ff ff
*/
