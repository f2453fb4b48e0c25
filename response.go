// Package target implements the response-normalization stage of a Target
// delivery client. Given one decoded delivery response document it extracts
// the pieces the surrounding application consumes: prefetched and batched
// mbox content, view prefetch payloads, session identity fields, Analytics
// for Target payloads, response tokens and rendered content strings.
//
// Every extraction is defensive: a missing key, a value of the wrong type or
// an out-of-range index degrades to the operation's absent value (a nil map,
// a comma-ok false, or an empty string) rather than an error. The single
// exception is ExtractRawResponse, which surfaces a structural fault when
// the document root is not object-shaped.
package target

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/target-go/internal/jsonutil"
)

// ExtractRawResponse converts a server response tree into plain
// map[string]any form, recursively normalizing nested structures. A nil
// response returns (nil, nil). This is the only operation that reports a
// structural fault: a response that is not object-shaped is an error, not an
// absent value.
func ExtractRawResponse(response any) (map[string]any, error) {
	if response == nil {
		return nil, nil
	}
	m, err := jsonutil.ToMap(response)
	if err != nil {
		return nil, fmt.Errorf("convert raw response: %w", err)
	}
	return m, nil
}

// mboxesFromKey returns the mboxes array nested under the named container
// section, or nil when either level is missing.
func mboxesFromKey(doc map[string]any, key string) []any {
	container := jsonutil.Object(doc, key)
	if container == nil {
		log.Debug().Str("stage", "response").Str("key", key).Msg("no mbox container in response")
		return nil
	}
	mboxes := jsonutil.Array(container, keyMboxes)
	if mboxes == nil {
		log.Debug().Str("stage", "response").Str("key", key).Msg("mbox container has no mboxes array")
		return nil
	}
	return mboxes
}

// ExtractBatchedMboxes returns the mboxes under the execute section keyed by
// mbox name. Entries that are not objects or carry no name are dropped; a
// duplicate name keeps the last occurrence. Returns nil when the execute
// section or its mboxes array is missing, and an empty non-nil map when the
// array is present but empty.
func ExtractBatchedMboxes(doc map[string]any) map[string]map[string]any {
	batched := mboxesFromKey(doc, keyExecute)
	if batched == nil {
		return nil
	}
	responses := make(map[string]map[string]any, len(batched))
	for i := range batched {
		mbox := jsonutil.ObjectAt(batched, i)
		if mbox == nil {
			continue
		}
		name := jsonutil.StringOr(mbox, keyName, "")
		if name == "" {
			continue
		}
		responses[name] = mbox
	}
	return responses
}

// ExtractPrefetchedMboxes returns the mboxes under the prefetch section
// keyed by mbox name, with each entry reduced to the cacheable fields listed
// in cachedMboxAcceptedKeys. Prefetched entries are handed to the on-device
// cache afterwards and must not carry transient fields. Each returned entry
// is a fresh map; the supplied document is never modified.
func ExtractPrefetchedMboxes(doc map[string]any) map[string]map[string]any {
	prefetched := mboxesFromKey(doc, keyPrefetch)
	if prefetched == nil {
		return nil
	}
	responses := make(map[string]map[string]any, len(prefetched))
	for i := range prefetched {
		mbox := jsonutil.ObjectAt(prefetched, i)
		if mbox == nil {
			continue
		}
		name := jsonutil.StringOr(mbox, keyName, "")
		if name == "" {
			continue
		}
		cached := make(map[string]any, len(cachedMboxAcceptedKeys))
		for _, k := range cachedMboxAcceptedKeys {
			if v, ok := mbox[k]; ok {
				cached[k] = v
			}
		}
		responses[name] = cached
	}
	return responses
}

// ExtractPrefetchedViews returns the prefetched views array re-serialized as
// JSON text. Downstream consumers treat the result as opaque serialized
// data. Returns "" when the prefetch section is missing or the views array
// is missing or empty.
func ExtractPrefetchedViews(doc map[string]any) string {
	if doc == nil {
		log.Debug().Str("stage", "response").Msg("no response document to extract views from")
		return ""
	}
	container := jsonutil.Object(doc, keyPrefetch)
	if container == nil {
		log.Debug().Str("stage", "response").Msg("response has no prefetch section")
		return ""
	}
	views := jsonutil.Array(container, keyViews)
	if len(views) == 0 {
		log.Debug().Str("stage", "response").Msg("prefetch section has no views")
		return ""
	}
	return jsonutil.Serialize(views)
}

// TntID returns the tntId issued by the server under the id section.
func TntID(doc map[string]any) (string, bool) {
	idSection := jsonutil.Object(doc, keyID)
	if idSection == nil {
		return "", false
	}
	return jsonutil.OptString(idSection, keyTntID)
}

// EdgeHost returns the edge host the server pinned the session to, or ""
// when the response carries none. Unlike the other accessors this one never
// reports absence; the empty default is part of its contract.
func EdgeHost(doc map[string]any) string {
	return jsonutil.StringOr(doc, keyEdgeHost, "")
}

// ErrorMessage returns the error string the server attached to the
// response, if any.
func ErrorMessage(doc map[string]any) (string, bool) {
	return jsonutil.OptString(doc, keyMessage)
}

// AnalyticsForTargetPayload reads the analytics.payload object nested under
// an mbox or metric and flattens it to string-to-string form. Returns nil
// when either level is missing.
func AnalyticsForTargetPayload(obj map[string]any) map[string]string {
	analytics := jsonutil.Object(obj, keyAnalytics)
	if analytics == nil {
		return nil
	}
	payload := jsonutil.Object(analytics, keyPayload)
	if payload == nil {
		return nil
	}
	return jsonutil.StringMap(payload)
}

// PreprocessAnalyticsForTargetPayload rewrites an A4T payload into the key
// format Analytics expects: every key is prefixed with "&&", and the session
// id is injected under A4TSessionIDKey when sessionID is non-empty. The
// input payload is left unmodified. A nil or empty payload returns nil
// regardless of sessionID.
func PreprocessAnalyticsForTargetPayload(payload map[string]string, sessionID string) map[string]string {
	if len(payload) == 0 {
		return nil
	}
	modified := make(map[string]string, len(payload)+1)
	for k, v := range payload {
		modified["&&"+k] = v
	}
	if sessionID != "" {
		modified[A4TSessionIDKey] = sessionID
	}
	return modified
}

// AnalyticsForTargetPayloadWithSession extracts the A4T payload from an mbox
// and preprocesses it for forwarding in one step.
func AnalyticsForTargetPayloadWithSession(mbox map[string]any, sessionID string) map[string]string {
	return PreprocessAnalyticsForTargetPayload(AnalyticsForTargetPayload(mbox), sessionID)
}

// ExtractClickMetricAnalyticsPayload returns the A4T payload attached to the
// mbox's click metric, or nil when the mbox has no qualifying click metric
// or the metric carries no payload.
func ExtractClickMetricAnalyticsPayload(mbox map[string]any) map[string]string {
	return AnalyticsForTargetPayload(ClickMetric(mbox))
}

// ClickMetric returns the first metric in document order whose type is
// "click" and whose event token is non-empty, or nil when no metric
// qualifies. First match wins; the order of the metrics array is part of
// the contract.
func ClickMetric(mbox map[string]any) map[string]any {
	metrics := jsonutil.Array(mbox, keyMetrics)
	for i := range metrics {
		metric := jsonutil.ObjectAt(metrics, i)
		if metric == nil {
			continue
		}
		if jsonutil.StringOr(metric, keyType, "") != metricTypeClick {
			continue
		}
		if jsonutil.StringOr(metric, keyEventToken, "") == "" {
			continue
		}
		return metric
	}
	return nil
}

// ResponseTokens returns the response tokens from the mbox's first option.
// The delivery payload carries a single option object per mbox, so only
// index 0 is consulted; tokens on later options are not examined.
func ResponseTokens(mbox map[string]any) map[string]string {
	options := jsonutil.Array(mbox, keyOptions)
	option := jsonutil.ObjectAt(options, 0)
	tokens := jsonutil.Object(option, keyResponseTokens)
	if tokens == nil {
		return nil
	}
	return jsonutil.StringMap(tokens)
}

// ExtractMboxContent concatenates the renderable content of every option in
// document order with no separator. html options contribute their content
// string verbatim, json options the JSON text of their content object, any
// other type contributes nothing. This operation never reports absence: a
// missing mbox or options array and options with no usable content all
// yield "".
func ExtractMboxContent(mbox map[string]any) string {
	if mbox == nil {
		log.Debug().Str("stage", "response").Msg("no mbox to extract content from")
		return ""
	}
	options := jsonutil.Array(mbox, keyOptions)
	if options == nil {
		log.Debug().Str("stage", "response").Msg("mbox has no options array")
		return ""
	}
	var content strings.Builder
	for i := range options {
		option := jsonutil.ObjectAt(options, i)
		if option == nil {
			continue
		}
		raw, ok := option[keyContent]
		if !ok || raw == nil {
			continue
		}
		if s, isString := raw.(string); isString && s == "" {
			continue
		}
		switch jsonutil.StringOr(option, keyType, "") {
		case contentTypeHTML:
			if s, isString := raw.(string); isString {
				content.WriteString(s)
			}
		case contentTypeJSON:
			if obj, isObject := raw.(map[string]any); isObject {
				content.WriteString(jsonutil.Serialize(obj))
			}
		}
	}
	return content.String()
}
