// Copyright 2018 Anapaya Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// CtxMap carries values that samplers may substitute into their text.
type CtxMap map[string]string

// WriteSample writes the samplers in order. Table samplers get a header and
// an indented body. It panics if writing fails.
func WriteSample(dst io.Writer, path Path, ctx CtxMap, samplers ...Sampler) {
	var buf bytes.Buffer
	for _, s := range samplers {
		buf.Reset()
		ts, ok := s.(TableSampler)
		if !ok {
			s.Sample(&buf, path, ctx)
			if _, err := io.Copy(dst, &buf); err != nil {
				panic(fmt.Sprintf("writing sample: %s", err))
			}
			continue
		}
		p := path.Extend(ts.ConfigName())
		WriteString(dst, fmt.Sprintf("\n[%s]\n", strings.Join(p, ".")))
		ts.Sample(&buf, p, ctx)
		indent(dst, &buf)
	}
}

// WriteString writes s to dst. It panics if writing fails.
func WriteString(dst io.Writer, s string) {
	if _, err := io.WriteString(dst, s); err != nil {
		panic(fmt.Sprintf("writing sample: %s", err))
	}
}

func indent(dst io.Writer, src io.Reader) {
	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			WriteString(dst, "\n")
			continue
		}
		WriteString(dst, "    "+line+"\n")
	}
}

// ID is the CtxMap key of the element ID.
const ID = "id"
