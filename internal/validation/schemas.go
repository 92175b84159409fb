package validation

const conditionsSchema = `{
  "type": "object",
  "properties": {
    "stopIfReplied": {"type": "boolean"},
    "rules": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["field", "operator"],
        "properties": {
          "field": {"type": "string", "minLength": 1},
          "operator": {"enum": ["equals", "not_equals", "contains", "empty", "not_empty"]},
          "value": {"type": "string"}
        }
      }
    },
    "inStages": {"$ref": "#/definitions/stages"},
    "notInStages": {"$ref": "#/definitions/stages"}
  },
  "definitions": {
    "stages": {
      "type": ["object", "null"],
      "required": ["pipelineId", "stageIds"],
      "properties": {
        "pipelineId": {"type": "integer", "minimum": 1},
        "stageIds": {"type": "array", "items": {"type": "integer"}, "minItems": 1}
      }
    }
  }
}`

const audienceSchema = `{
  "type": "object",
  "required": ["kind"],
  "properties": {
    "kind": {"enum": ["contacts", "filter", "pipeline_stage"]},
    "contact_ids": {"type": "array", "items": {"type": "integer", "minimum": 1}},
    "filter": {"type": ["object", "null"]},
    "pipeline_id": {"type": "integer"},
    "stage_id": {"type": "integer"},
    "exclude_enrolled": {"type": "boolean"}
  },
  "allOf": [
    {
      "if": {"properties": {"kind": {"const": "contacts"}}},
      "then": {"required": ["contact_ids"], "properties": {"contact_ids": {"minItems": 1}}}
    },
    {
      "if": {"properties": {"kind": {"const": "pipeline_stage"}}},
      "then": {
        "required": ["pipeline_id", "stage_id"],
        "properties": {"pipeline_id": {"minimum": 1}, "stage_id": {"minimum": 1}}
      }
    }
  ]
}`

const scheduleSchema = `{
  "type": "object",
  "properties": {
    "timezone": {"type": "string"},
    "start_hour": {"type": "integer", "minimum": 0, "maximum": 23},
    "end_hour": {"type": "integer", "minimum": 0, "maximum": 24},
    "days": {
      "type": "array",
      "items": {"type": "integer", "minimum": 0, "maximum": 6},
      "uniqueItems": true
    }
  }
}`

const leadSettingsSchema = `{
  "type": "object",
  "required": ["trigger"],
  "properties": {
    "trigger": {"enum": ["on_first_send", "on_reply", "none"]},
    "stage_id": {"type": "integer", "minimum": 0},
    "owner_id": {"type": "integer", "minimum": 0}
  }
}`
