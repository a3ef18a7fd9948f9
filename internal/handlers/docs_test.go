package handlers_test

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/SscSPs/dairy_billing_app/cmd/docs"
)

var pathParam = regexp.MustCompile(`:(\w+)`)

type swaggerDoc struct {
	Paths       map[string]map[string]json.RawMessage `json:"paths"`
	Definitions map[string]json.RawMessage            `json:"definitions"`
}

func (suite *HandlerTestSuite) readSwaggerDoc() (swaggerDoc, string) {
	raw := docs.SwaggerInfo.ReadDoc()
	var doc swaggerDoc
	suite.Require().NoError(json.Unmarshal([]byte(raw), &doc))
	return doc, raw
}

func (suite *HandlerTestSuite) TestSwaggerDoc_DocumentsEveryRoute() {
	doc, _ := suite.readSwaggerDoc()

	documented := 0
	for _, route := range suite.router.Routes() {
		if route.Path == "/metrics" {
			continue
		}
		path := pathParam.ReplaceAllString(strings.TrimPrefix(route.Path, "/api/v1"), "{$1}")
		ops, ok := doc.Paths[path]
		if !suite.True(ok, "path %s is not documented", path) {
			continue
		}
		_, ok = ops[strings.ToLower(route.Method)]
		suite.True(ok, "%s %s is not documented", route.Method, path)
		documented++
	}
	suite.Equal(19, documented)
}

func (suite *HandlerTestSuite) TestSwaggerDoc_ReferencesResolve() {
	doc, raw := suite.readSwaggerDoc()

	refs := regexp.MustCompile(`"#/definitions/([\w.]+)"`).FindAllStringSubmatch(raw, -1)
	suite.NotEmpty(refs)
	for _, ref := range refs {
		_, ok := doc.Definitions[ref[1]]
		suite.True(ok, "definition %s is missing", ref[1])
	}
}
