/*
Copyright © 2026 SUSE LLC
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
    http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Bridge-profiler is the command line companion to the profiling
// library: it can drive a synthetic module workload through a full
// profiling session and export the resulting trace, which is handy for
// exercising trace viewers and collector endpoints.
package main

func main() {
	Execute()
}
